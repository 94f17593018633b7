package models

import "time"

// Capability is the access level resolved for a session.
type Capability string

const (
	CapabilityNone   Capability = "none"
	CapabilityViewer Capability = "viewer"
	CapabilityEditor Capability = "editor"
	CapabilityOwner  Capability = "owner"
)

// CanEdit reports whether the capability allows member/photo/layout mutations.
func (c Capability) CanEdit() bool {
	return c == CapabilityEditor || c == CapabilityOwner
}

// CanView reports whether the capability allows read access.
func (c Capability) CanView() bool {
	return c == CapabilityViewer || c.CanEdit()
}

// FamilyMember represents a person node in the family tree.
// Dates travel as YYYY-MM-DD strings end to end.
type FamilyMember struct {
	ID                string    `json:"id"`
	FirstName         string    `json:"firstName"`
	Surname           string    `json:"surname"`
	DateOfBirth       *string   `json:"dateOfBirth"`
	DateOfDeath       *string   `json:"dateOfDeath"`
	IsAlive           bool      `json:"isAlive"`
	BirthPlace        *string   `json:"birthPlace"`
	TombstoneLocation *string   `json:"tombstoneLocation"`
	TombstonePhoto    *string   `json:"tombstonePhoto"`
	ProfilePicture    *string   `json:"profilePicture"`
	FatherID          *string   `json:"fatherId"`
	MotherID          *string   `json:"motherId"`
	SpouseID          *string   `json:"spouseId"`
	PositionX         *float64  `json:"positionX"`
	PositionY         *float64  `json:"positionY"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"createdAt"`
}

// FamilyMemberPatch carries a partial update; nil fields are left untouched.
type FamilyMemberPatch struct {
	FirstName         *string  `json:"firstName"`
	Surname           *string  `json:"surname"`
	DateOfBirth       *string  `json:"dateOfBirth"`
	DateOfDeath       *string  `json:"dateOfDeath"`
	IsAlive           *bool    `json:"isAlive"`
	BirthPlace        *string  `json:"birthPlace"`
	TombstoneLocation *string  `json:"tombstoneLocation"`
	TombstonePhoto    *string  `json:"tombstonePhoto"`
	ProfilePicture    *string  `json:"profilePicture"`
	FatherID          *string  `json:"fatherId"`
	MotherID          *string  `json:"motherId"`
	SpouseID          *string  `json:"spouseId"`
	PositionX         *float64 `json:"positionX"`
	PositionY         *float64 `json:"positionY"`
	Notes             *string  `json:"notes"`
}

// FamilyPhoto represents a gallery photo stored in object storage.
type FamilyPhoto struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	TaggedMemberIDs []string  `json:"taggedMemberIds"`
	CustomTags      []string  `json:"customTags"`
	UploadDate      time.Time `json:"uploadDate"`
	MemberID        *string   `json:"memberId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FamilyPhotoPatch carries a partial title/tag update.
type FamilyPhotoPatch struct {
	Title           *string   `json:"title"`
	TaggedMemberIDs *[]string `json:"taggedMemberIds"`
	CustomTags      *[]string `json:"customTags"`
}

// ShareRole is the access level a share link grants.
type ShareRole string

const (
	ShareRoleViewer ShareRole = "viewer"
	ShareRoleEditor ShareRole = "editor"
)

// Valid reports whether the role is one of the known values.
func (r ShareRole) Valid() bool {
	return r == ShareRoleViewer || r == ShareRoleEditor
}

// ShareLink is a capability token granting viewer or editor access
// without authentication. The token is the sole credential.
type ShareLink struct {
	ID          string     `json:"id"`
	Token       string     `json:"token"`
	Role        ShareRole  `json:"role"`
	IsActive    bool       `json:"isActive"`
	AccessCount int        `json:"accessCount"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ShareLinkPatch carries a partial share-link update.
type ShareLinkPatch struct {
	IsActive  *bool      `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// CustomLine is a user-drawn connector between two member cards.
type CustomLine struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Color  string `json:"color"`
	Label  string `json:"label"`
}

// TreeLayout holds the custom-line overlay. Node positions live on the
// member records themselves; the layout record never duplicates them.
// The first record is the active layout.
type TreeLayout struct {
	ID          string       `json:"id"`
	CustomLines []CustomLine `json:"customLines"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// KnowledgeDocument is a read-only document fed to the AI assistant
// as additional context.
type KnowledgeDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Position is a 2D canvas coordinate for a member card.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
