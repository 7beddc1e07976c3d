package table

// NoticeLevel is the severity of a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	case NoticeInfo:
	}
	return "info"
}

// Notice is a transient message for the user.
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}

// Notifier delivers notices.
type Notifier func(Notice)
