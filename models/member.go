package models

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleParticipant Role = "PARTICIPANT"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleParticipant
}

// RiskTier is informational only: A > B > C > D.
type RiskTier string

const (
	RiskA RiskTier = "A"
	RiskB RiskTier = "B"
	RiskC RiskTier = "C"
	RiskD RiskTier = "D"
)

func (r RiskTier) Valid() bool {
	switch r {
	case RiskA, RiskB, RiskC, RiskD:
		return true
	}
	return false
}

type MemberStatus string

const (
	MemberActive    MemberStatus = "ACTIVE"
	MemberWatchlist MemberStatus = "WATCHLIST"
	MemberBlacklist MemberStatus = "BLACKLIST"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberWatchlist, MemberBlacklist:
		return true
	}
	return false
}

type Member struct {
	Base

	Email     string       `gorm:"size:128;index" json:"email"`
	Name      string       `gorm:"size:128;not null;index" json:"name"`
	Phone     string       `gorm:"size:32" json:"phone"`
	Role      Role         `gorm:"size:16;not null;default:PARTICIPANT" json:"role"`
	RiskTier  RiskTier     `gorm:"size:1;not null;default:A" json:"risk_tier"`
	Status    MemberStatus `gorm:"size:16;not null;default:ACTIVE;index" json:"status"`
	AvatarURL string       `gorm:"size:255" json:"avatar_url,omitempty"`

	// payout channel
	BankName    string `gorm:"size:64" json:"bank_name,omitempty"`
	BankAccount string `gorm:"size:32" json:"bank_account,omitempty"`
	PromptPay   string `gorm:"size:32" json:"prompt_pay,omitempty"`
}

func (Member) TableName() string {
	return "members"
}
