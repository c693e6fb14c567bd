package domain

// Contact is an alternate way to reach the customer of an entry.
type Contact struct {
	ID       int64
	EntryID  int64
	FullName string
	NIK      string
	Phone    string
	Phone2   string
	Email    string
}
