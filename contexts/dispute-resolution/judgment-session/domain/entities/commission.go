package entities

type MemberRole string

const (
	RolePresident  MemberRole = "president"
	RoleRapporteur MemberRole = "rapporteur"
	RoleReviewer   MemberRole = "reviewer"
	RoleMember     MemberRole = "member"
	RoleAlternate  MemberRole = "alternate"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RolePresident, RoleRapporteur, RoleReviewer, RoleMember, RoleAlternate:
		return true
	default:
		return false
	}
}

type CommissionMember struct {
	MemberID string
	Name     string
	Role     MemberRole
	Active   bool
}

// Commission is the judging body whose active members form the quorum base.
type Commission struct {
	CommissionID string
	Name         string
	Members      []CommissionMember
}

func (c Commission) Member(memberID string) (CommissionMember, bool) {
	for _, member := range c.Members {
		if member.MemberID == memberID {
			return member, true
		}
	}
	return CommissionMember{}, false
}

func (c Commission) ActiveCount() int {
	count := 0
	for _, member := range c.Members {
		if member.Active {
			count++
		}
	}
	return count
}

// Quorum is ceil(active/2).
func Quorum(activeMembers int) int {
	if activeMembers <= 0 {
		return 0
	}
	return (activeMembers + 1) / 2
}
