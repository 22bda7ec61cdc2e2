package audit

// EventKind is one of the audit record types understood by the parser.
type EventKind uint8

// Recognized record types.
const (
	SysCall EventKind = iota + 1
	SockAddr
	Cwd
	Path
	ProcTitle
	UserAcct
	CredAcq
	UserAuth
	UserCmd
	UserStart
	UserEnd
	UserAvc
	Login
	CredRefr
	CredDisp
	DaemonEnd
	ServiceStart
	ServiceStop
	Bpf
)

var kindByName = map[string]EventKind{
	"SYSCALL":       SysCall,
	"SOCKADDR":      SockAddr,
	"CWD":           Cwd,
	"PATH":          Path,
	"PROCTITLE":     ProcTitle,
	"USER_ACCT":     UserAcct,
	"CRED_ACQ":      CredAcq,
	"USER_AUTH":     UserAuth,
	"USER_CMD":      UserCmd,
	"USER_START":    UserStart,
	"USER_END":      UserEnd,
	"USER_AVC":      UserAvc,
	"LOGIN":         Login,
	"CRED_REFR":     CredRefr,
	"CRED_DISP":     CredDisp,
	"DAEMON_END":    DaemonEnd,
	"SERVICE_START": ServiceStart,
	"SERVICE_STOP":  ServiceStop,
	"BPF":           Bpf,
}

var nameByKind = func() map[EventKind]string {
	m := make(map[EventKind]string, len(kindByName))
	for name, kind := range kindByName {
		m[kind] = name
	}
	return m
}()

// ParseEventKind maps a type token such as "SYSCALL" to its EventKind.
// The second return value is false for tokens outside the known set.
func ParseEventKind(token string) (EventKind, bool) {
	kind, ok := kindByName[token]
	return kind, ok
}

// String returns the audit type token, e.g. "SOCKADDR".
func (k EventKind) String() string {
	if name, ok := nameByKind[k]; ok {
		return name
	}
	return "UNKNOWN"
}
