package engine

// Kind tells the transport which response shape to render.
type Kind int

const (
	KindDispensed Kind = iota
	KindBlocked
	KindEmpty
	KindManual
	KindPoll
	KindVoiceFailed
)

// Result texts and mode labels the device firmware matches on.
const (
	ResultWait        = "WAIT"
	ResultEmpty       = "EMPTY"
	ResultNoCommand   = "명령없음"
	ResultCommandErr  = "명령 오류"
	ResultSTTFail     = "VOICE_STT_FAIL"
	ResultUploadFail  = "VOICE_UPLOAD_FAIL"
	ModeCoolDown      = "CoolDown"
	ModeRefill        = "Refill"
	MessageSTTFail    = "음성 인식 실패"
	MessageUploadFail = "음성 저장 실패"
	MessageEmpty      = "[잔량없음] 리필 필요"
)

// Result is the decision returned for one request.
type Result struct {
	Kind              Kind
	ScentCode         int
	Duration          int
	ResultText        string
	Message           string
	Mode              string
	RemainingCapacity float64
	TargetRegion      string // poll only
	VoiceText         string // voice only
	Temperature       string
	Humidity          string
}

// Blocked reports whether a candidate was suppressed.
func (r Result) Blocked() bool {
	return r.Kind == KindBlocked || r.Kind == KindEmpty
}

// CommandError is the reply to a manual command whose scent code cannot be read.
func CommandError() Result {
	return Result{Kind: KindManual, ScentCode: 0, ResultText: ResultCommandErr, Message: ResultCommandErr}
}
