package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Address is the postal address kept on an account profile.
type Address struct {
	Line1    string `json:"address,omitempty" bson:"address,omitempty"`
	Line2    string `json:"address2,omitempty" bson:"address2,omitempty"`
	City     string `json:"city,omitempty" bson:"city,omitempty"`
	Zip      string `json:"zip,omitempty" bson:"zip,omitempty"`
	Province string `json:"province,omitempty" bson:"province,omitempty"`
	Country  string `json:"country,omitempty" bson:"country,omitempty"`
}

// ResetDigest is the stored half of a reset ticket: the one-way hash of the
// secret mailed to the account holder and the instant it stops being valid.
type ResetDigest struct {
	Hash      string    `bson:"hash"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Account models a registered identity.
// PasswordHash and PendingReset never leave the service in a response.
type Account struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	PendingReset *ResetDigest `json:"-"`

	FullName    string  `json:"full_name,omitempty"`
	Phone       string  `json:"phone_number,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	IsBusiness  bool    `json:"is_business"`
	Address     Address `json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPendingReset reports whether a reset ticket has been issued and not yet
// consumed or rolled back. Expiry is not considered here.
func (a *Account) HasPendingReset() bool {
	return a.PendingReset != nil && a.PendingReset.Hash != ""
}

// AccountPatch describes a single atomic update of one account record.
// Nil fields are left untouched.
type AccountPatch struct {
	PasswordHash *string
	SetReset     *ResetDigest
	ClearReset   bool

	// ExpectResetHash, when non-empty, makes the update conditional on the
	// stored reset hash still being equal to it. An unmet condition is
	// reported as ErrNotFound.
	ExpectResetHash string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.PasswordHash == nil && p.SetReset == nil && !p.ClearReset
}
