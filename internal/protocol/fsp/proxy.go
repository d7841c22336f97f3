package fsp

import (
	"context"

	"github.com/nxemu/fspsrv/internal/backend"
	"github.com/nxemu/fspsrv/internal/logger"
	"github.com/nxemu/fspsrv/internal/protocol/ipc"
	"github.com/nxemu/fspsrv/internal/protocol/result"
)

// saveStructSize is the size of each opaque save-data descriptor passed to
// CreateSaveData.
const saveStructSize = 0x40

// accessLogMode is the fixed answer of GetGlobalAccessLogMode.
const accessLogMode = 5

// Proxy is the root filesystem service session. It owns no backend handle;
// mounts are resolved on demand through the mount resolver, and the
// current-process data filesystem is resolved lazily and memoized for the
// proxy's lifetime.
type Proxy struct {
	table    *CommandTable
	resolver backend.MountResolver

	// processData caches the first successful current-process data
	// resolution. Later calls reuse it without re-invoking the resolver.
	processData backend.FileSystem
}

// NewProxy builds the root session over the given mount resolver.
func NewProxy(resolver backend.MountResolver) *Proxy {
	p := &Proxy{resolver: resolver}
	p.table = NewCommandTable("Proxy", map[uint32]Command{
		0:    Stub("MountContent"),
		1:    Implemented("Initialize", p.initialize),
		2:    Stub("OpenDataFileSystemByCurrentProcess"),
		7:    Stub("OpenFileSystemWithPatch"),
		8:    Stub("OpenFileSystemWithId"),
		9:    Stub("OpenDataFileSystemByApplicationId"),
		11:   Stub("OpenBisFileSystem"),
		12:   Stub("OpenBisStorage"),
		13:   Stub("InvalidateBisCache"),
		17:   Stub("OpenHostFileSystem"),
		18:   Implemented("MountSdCard", p.mountSdCard),
		19:   Stub("FormatSdCardFileSystem"),
		21:   Stub("DeleteSaveDataFileSystem"),
		22:   Implemented("CreateSaveData", p.createSaveData),
		23:   Stub("CreateSaveDataFileSystemBySystemSaveDataId"),
		24:   Stub("RegisterSaveDataFileSystemAtomicDeletion"),
		25:   Stub("DeleteSaveDataFileSystemBySaveDataSpaceId"),
		26:   Stub("FormatSdCardDryRun"),
		27:   Stub("IsExFatSupported"),
		28:   Stub("DeleteSaveDataFileSystemBySaveDataAttribute"),
		30:   Stub("OpenGameCardStorage"),
		31:   Stub("OpenGameCardFileSystem"),
		32:   Stub("ExtendSaveDataFileSystem"),
		33:   Stub("DeleteCacheStorage"),
		34:   Stub("GetCacheStorageSize"),
		51:   Implemented("MountSaveData", p.mountSaveData),
		52:   Stub("OpenSaveDataFileSystemBySystemSaveDataId"),
		53:   Stub("OpenReadOnlySaveDataFileSystem"),
		57:   Stub("ReadSaveDataFileSystemExtraDataBySaveDataSpaceId"),
		58:   Stub("ReadSaveDataFileSystemExtraData"),
		59:   Stub("WriteSaveDataFileSystemExtraData"),
		60:   Stub("OpenSaveDataInfoReader"),
		61:   Stub("OpenSaveDataInfoReaderBySaveDataSpaceId"),
		62:   Stub("OpenCacheStorageList"),
		64:   Stub("OpenSaveDataInternalStorageFileSystem"),
		65:   Stub("UpdateSaveDataMacForDebug"),
		66:   Stub("WriteSaveDataFileSystemExtraData2"),
		80:   Stub("OpenSaveDataMetaFile"),
		81:   Stub("OpenSaveDataTransferManager"),
		82:   Stub("OpenSaveDataTransferManagerVersion2"),
		100:  Stub("OpenImageDirectoryFileSystem"),
		110:  Stub("OpenContentStorageFileSystem"),
		200:  Implemented("OpenDataStorageByCurrentProcess", p.openDataStorageByCurrentProcess),
		201:  Stub("OpenDataStorageByProgramId"),
		202:  Stub("OpenDataStorageByDataId"),
		203:  Implemented("OpenRomStorage", p.openRomStorage),
		400:  Stub("OpenDeviceOperator"),
		500:  Stub("OpenSdCardDetectionEventNotifier"),
		501:  Stub("OpenGameCardDetectionEventNotifier"),
		510:  Stub("OpenSystemDataUpdateEventNotifier"),
		511:  Stub("NotifySystemDataUpdateEvent"),
		600:  Stub("SetCurrentPosixTime"),
		601:  Stub("QuerySaveDataTotalSize"),
		602:  Stub("VerifySaveDataFileSystem"),
		603:  Stub("CorruptSaveDataFileSystem"),
		604:  Stub("CreatePaddingFile"),
		605:  Stub("DeleteAllPaddingFiles"),
		606:  Stub("GetRightsId"),
		607:  Stub("RegisterExternalKey"),
		608:  Stub("UnregisterAllExternalKey"),
		609:  Stub("GetRightsIdByPath"),
		610:  Stub("GetRightsIdAndKeyGenerationByPath"),
		611:  Stub("SetCurrentPosixTimeWithTimeDifference"),
		612:  Stub("GetFreeSpaceSizeForSaveData"),
		613:  Stub("VerifySaveDataFileSystemBySaveDataSpaceId"),
		614:  Stub("CorruptSaveDataFileSystemBySaveDataSpaceId"),
		615:  Stub("QuerySaveDataInternalStorageTotalSize"),
		620:  Stub("SetSdCardEncryptionSeed"),
		630:  Stub("SetSdCardAccessibility"),
		631:  Stub("IsSdCardAccessible"),
		640:  Stub("IsSignedSystemPartitionOnSdCardValid"),
		700:  Stub("OpenAccessFailureResolver"),
		701:  Stub("GetAccessFailureDetectionEvent"),
		702:  Stub("IsAccessFailureDetected"),
		710:  Stub("ResolveAccessFailure"),
		720:  Stub("AbandonAccessFailure"),
		800:  Stub("GetAndClearFileSystemProxyErrorInfo"),
		1000: Stub("SetBisRootForHost"),
		1001: Stub("SetSaveDataSize"),
		1002: Stub("SetSaveDataRootPath"),
		1003: Stub("DisableAutoSaveDataCreation"),
		1004: Stub("SetGlobalAccessLogMode"),
		1005: Implemented("GetGlobalAccessLogMode", p.getGlobalAccessLogMode),
		1006: Stub("OutputAccessLogToSdCard"),
		1007: Stub("RegisterUpdatePartition"),
		1008: Stub("OpenRegisteredUpdatePartition"),
		1009: Stub("GetAndClearMemoryReportInfo"),
		1100: Stub("OverrideSaveDataTransferTokenSignVerificationKey"),
	})
	return p
}

// InterfaceName implements ipc.Object.
func (p *Proxy) InterfaceName() string { return p.table.Interface() }

// Commands implements Session.
func (p *Proxy) Commands() *CommandTable { return p.table }

func (p *Proxy) initialize(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.WarnCtx(ctx, "stubbed")
	return ipc.Success(), nil
}

// mount opens a filesystem of the given kind and transfers a new
// FileSystemSession to the caller.
func (p *Proxy) mount(ctx context.Context, req *ipc.Request, kind backend.MountKind) (*ipc.Response, error) {
	logger.DebugCtx(ctx, "called", logger.Mount(kind.String()))

	fs, err := p.resolver.Open(kind, "")
	if err != nil {
		logger.ErrorCtx(ctx, "mount resolution failed",
			logger.Mount(kind.String()), logger.Err(err))
		return ipc.Failure(resultFromBackend(err)), nil
	}

	return ipc.NewBuilder(req).
		PushObject(NewFileSystemSession(fs)).
		Done(), nil
}

func (p *Proxy) mountSdCard(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	return p.mount(ctx, req, backend.KindSdCard)
}

func (p *Proxy) mountSaveData(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.WarnCtx(ctx, "stubbed")
	return p.mount(ctx, req, backend.KindSaveData)
}

// createSaveData accepts the two opaque save descriptors and the 128-bit
// user id, and unconditionally succeeds. Actual save-data creation is not
// wired up yet.
func (p *Proxy) createSaveData(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	rp := req.Parser()
	_ = rp.Raw(saveStructSize) // save attribute
	_ = rp.Raw(saveStructSize) // save creation info
	uidLo, uidHi := rp.U128()
	if err := rp.Err(); err != nil {
		return nil, err
	}

	logger.WarnCtx(ctx, "stubbed", "uid_hi", uidHi, "uid_lo", uidLo)
	return ipc.Success(), nil
}

func (p *Proxy) getGlobalAccessLogMode(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.WarnCtx(ctx, "stubbed")
	return ipc.NewBuilder(req).PushU32(accessLogMode).Done(), nil
}

// loadProcessData resolves the current-process data filesystem once and
// memoizes it for the proxy's lifetime.
func (p *Proxy) loadProcessData() bool {
	if p.processData != nil {
		return true
	}
	fs, err := p.resolver.Open(backend.KindRomFS, "")
	if err != nil {
		return false
	}
	p.processData = fs
	return true
}

// openDataStorageByCurrentProcess opens a read-only storage session over
// the current-process data. The resolved filesystem is cached; resolution
// failure yields the generic backend-unavailable code.
func (p *Proxy) openDataStorageByCurrentProcess(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.DebugCtx(ctx, "called")

	if !p.loadProcessData() {
		logger.ErrorCtx(ctx, "no process data filesystem available")
		return ipc.Failure(result.Unavailable), nil
	}

	storage, err := p.processData.OpenFile("", backend.ModeRead)
	if err != nil {
		logger.ErrorCtx(ctx, "no storage interface available", logger.Err(err))
		return ipc.Failure(resultFromBackend(err)), nil
	}

	return ipc.NewBuilder(req).
		PushObject(NewStorageSession(storage)).
		Done(), nil
}

// openRomStorage is an explicit alias of OpenDataStorageByCurrentProcess,
// not a distinct implementation.
func (p *Proxy) openRomStorage(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	logger.WarnCtx(ctx, "stubbed, using OpenDataStorageByCurrentProcess")
	return p.openDataStorageByCurrentProcess(ctx, req)
}
