package model

// AccountPick is one account record handed out from the active-account pool,
// together with the base and table it came from so the caller can write status
// fields back to the right place.
type AccountPick struct {
	ID            string
	Account       string
	Password      string
	Email         string
	EmailPassword string
	PackageName   string
	DeviceID      string
	Source        TableRef
}
