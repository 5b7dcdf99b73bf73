package model

// AccountKind discriminates the account union. It is set once at creation
// and never inferred from which fields happen to be populated.
type AccountKind string

const (
	AccountTeamMember AccountKind = "team_member"
	AccountRequester  AccountKind = "requester"
)

// TeamMember is an internal actor who triages and resolves tasks.
// Referenced by Task.AssigneeID and TaskNote.Author.
type TeamMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Avatar   string `json:"avatar,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Requester is an external actor who submits task requests.
type Requester struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// Account is the tagged union over the two actor kinds. Exactly one of
// Member/Requester is set, as indicated by Kind.
type Account struct {
	Kind      AccountKind `json:"kind"`
	Member    *TeamMember `json:"member,omitempty"`
	Requester *Requester  `json:"requester,omitempty"`
}

// MemberAccount builds a team-member account.
func MemberAccount(m TeamMember) Account {
	return Account{Kind: AccountTeamMember, Member: &m}
}

// RequesterAccount builds a requester account.
func RequesterAccount(r Requester) Account {
	return Account{Kind: AccountRequester, Requester: &r}
}

// DisplayName returns the name to show for the account holder.
func (a Account) DisplayName() string {
	switch a.Kind {
	case AccountTeamMember:
		if a.Member != nil {
			return a.Member.Name
		}
	case AccountRequester:
		if a.Requester != nil {
			return a.Requester.Name
		}
	}
	return ""
}
