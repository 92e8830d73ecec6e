package domain

// Account models a dashboard operator who can sign in.
type Account struct {
	Username       string
	DisplayName    string
	PasswordHash   string
	Role           Role
	TechnicianCode Assignee
}
