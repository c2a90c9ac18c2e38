package domain

// Operator is the authenticated owner of a catalog. Email is the owner identity.
type Operator struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
}
