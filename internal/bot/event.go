package bot

// Kind discriminates inbound transport events.
type Kind string

const (
	KindCommand  Kind = "command"
	KindContact  Kind = "contact"
	KindText     Kind = "text"
	KindCallback Kind = "callback"
)

// ContactPayload is the contact card attached to a contact-share event.
// UserID is the platform ID of the user the card belongs to, which is not
// necessarily the sharer.
type ContactPayload struct {
	UserID    int64
	Phone     string
	FirstName string
	LastName  string
}

// Event is one typed inbound update, decoupled from the transport.
type Event struct {
	Kind    Kind
	UserID  int64
	ChatID  int64
	Command string
	Args    []string
	Text    string
	Contact *ContactPayload
	// Callback carries the raw callback data, e.g. "req:approve:<id>".
	Callback string
}

// Button is one inline keyboard button with callback data.
type Button struct {
	Label string
	Data  string
}

// Reply is the structured outcome the dispatcher hands back to the transport.
type Reply struct {
	ChatID         int64
	Text           string
	RequestContact bool
	Buttons        [][]Button
}
