package types

// OwnerID implementations feed the policy package's Resource interface.

func (s *Session) OwnerID() string   { return s.AuthorID.String() }
func (i *Incentive) OwnerID() string { return i.AuthorID.String() }
