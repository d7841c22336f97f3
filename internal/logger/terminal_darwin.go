package logger

import "syscall"

const ioctlReadTermios = syscall.TIOCGETA
