package logger

import "syscall"

const ioctlReadTermios = syscall.TCGETS
