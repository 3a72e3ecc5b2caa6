package common

// Credentials carries the authentication material used when commands run
// against a remote host, plus the sudo password for privileged commands on
// either side of the connection.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
	SudoPassword  string
}
