// Package ipc defines the operations content may invoke on the host. Each
// operation is its own request type; positional JSON arguments are decoded
// into that type and malformed calls are rejected before any handler runs.
package ipc

// Op names an operation on the wire.
type Op string

const (
	OpEstablishTrustKey     Op = "establishTrustKey"
	OpRemoveTrustKey        Op = "removeTrustKey"
	OpStoreCredential       Op = "storeCredential"
	OpGetCredential         Op = "getCredential"
	OpDeleteCredential      Op = "deleteCredential"
	OpCreateWindow          Op = "createWindow"
	OpCloseWindow           Op = "closeWindow"
	OpCloseWindowByLabel    Op = "closeWindowByLabel"
	OpGetWindowLabels       Op = "getWindowLabels"
	OpGetCurrentWindowLabel Op = "getCurrentWindowLabel"
	OpFocusWindow           Op = "focusWindow"
	OpSpawnProcess          Op = "spawnProcess"
	OpWriteToProcess        Op = "writeToProcess"
	OpReadClipboard         Op = "readClipboard"
	OpWriteClipboard        Op = "writeClipboard"
	OpOpenExternal          Op = "openExternal"
	OpGetAppName            Op = "getAppName"
	OpGetCLIArgs            Op = "getCliArgs"
	OpQuitApp               Op = "quitApp"
	OpConsoleLog            Op = "consoleLog"
)

// Request is one decoded operation. The set of implementations is closed.
type Request interface {
	Op() Op
	isRequest()
}

// WindowOptions are the optional settings for createWindow.
type WindowOptions struct {
	WindowTitle string `json:"windowTitle,omitempty"`
	Fullscreen  bool   `json:"fullscreen,omitempty"`
	Resizable   *bool  `json:"resizable,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	MinWidth    int    `json:"minWidth,omitempty"`
	MinHeight   int    `json:"minHeight,omitempty"`
	IsExtension bool   `json:"isExtension,omitempty"`
}

type EstablishTrustKey struct{ Key, IV string }
type RemoveTrustKey struct{ Key, IV string }

// StoreCredential carries a nil Secret when the caller passed null or
// omitted it.
type StoreCredential struct {
	Scope  string
	Secret *string
}

type GetCredential struct{ Scope string }
type DeleteCredential struct{ Scope string }

type CreateWindow struct {
	URL     string
	Options WindowOptions
}

type CloseWindow struct{}
type CloseWindowByLabel struct{ Label string }
type GetWindowLabels struct{}
type GetCurrentWindowLabel struct{}
type FocusWindow struct{}

type SpawnProcess struct {
	Command string
	Args    []string
}

type WriteToProcess struct {
	Instance int
	Data     string
}

type ReadClipboard struct{}
type WriteClipboard struct{ Text string }
type OpenExternal struct{ URL string }
type GetAppName struct{}
type GetCLIArgs struct{}
type QuitApp struct{ ExitCode int }
type ConsoleLog struct{ Message string }

func (EstablishTrustKey) Op() Op     { return OpEstablishTrustKey }
func (RemoveTrustKey) Op() Op        { return OpRemoveTrustKey }
func (StoreCredential) Op() Op       { return OpStoreCredential }
func (GetCredential) Op() Op         { return OpGetCredential }
func (DeleteCredential) Op() Op      { return OpDeleteCredential }
func (CreateWindow) Op() Op          { return OpCreateWindow }
func (CloseWindow) Op() Op           { return OpCloseWindow }
func (CloseWindowByLabel) Op() Op    { return OpCloseWindowByLabel }
func (GetWindowLabels) Op() Op       { return OpGetWindowLabels }
func (GetCurrentWindowLabel) Op() Op { return OpGetCurrentWindowLabel }
func (FocusWindow) Op() Op           { return OpFocusWindow }
func (SpawnProcess) Op() Op          { return OpSpawnProcess }
func (WriteToProcess) Op() Op        { return OpWriteToProcess }
func (ReadClipboard) Op() Op         { return OpReadClipboard }
func (WriteClipboard) Op() Op        { return OpWriteClipboard }
func (OpenExternal) Op() Op          { return OpOpenExternal }
func (GetAppName) Op() Op            { return OpGetAppName }
func (GetCLIArgs) Op() Op            { return OpGetCLIArgs }
func (QuitApp) Op() Op               { return OpQuitApp }
func (ConsoleLog) Op() Op            { return OpConsoleLog }

func (EstablishTrustKey) isRequest()     {}
func (RemoveTrustKey) isRequest()        {}
func (StoreCredential) isRequest()       {}
func (GetCredential) isRequest()         {}
func (DeleteCredential) isRequest()      {}
func (CreateWindow) isRequest()          {}
func (CloseWindow) isRequest()           {}
func (CloseWindowByLabel) isRequest()    {}
func (GetWindowLabels) isRequest()       {}
func (GetCurrentWindowLabel) isRequest() {}
func (FocusWindow) isRequest()           {}
func (SpawnProcess) isRequest()          {}
func (WriteToProcess) isRequest()        {}
func (ReadClipboard) isRequest()         {}
func (WriteClipboard) isRequest()        {}
func (OpenExternal) isRequest()          {}
func (GetAppName) isRequest()            {}
func (GetCLIArgs) isRequest()            {}
func (QuitApp) isRequest()               {}
func (ConsoleLog) isRequest()            {}
