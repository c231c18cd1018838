package ports

// NoticeKind names a security notification sent after an account change.
type NoticeKind string

const (
	NoticePasswordChanged NoticeKind = "password_changed"
	NoticePasswordReset   NoticeKind = "password_reset"
)

// Notice is a best-effort notification about a completed account change.
type Notice struct {
	AccountID string
	Email     string
	Kind      NoticeKind
}

// NoticeSink accepts notices without blocking the caller. It reports false
// when the notice was dropped.
type NoticeSink interface {
	Enqueue(n Notice) bool
}
