package dto

// RegisterAccountRequest is the payload for registering an IMAP mailbox.
// Port is optional and defaults to 993.
type RegisterAccountRequest struct {
	Email        string `json:"email" binding:"required,email"`
	IMAPHost     string `json:"imap_host" binding:"required"`
	IMAPPort     int    `json:"imap_port"`
	IMAPUser     string `json:"imap_user" binding:"required"`
	IMAPPassword string `json:"imap_password" binding:"required"`
}
