package domain

type Profile struct {
	ID       string   `json:"id" cbor:"1,keyasint"`
	Name     string   `json:"name" cbor:"2,keyasint"`
	Gravatar string   `json:"gravatar" cbor:"3,keyasint"`
	Bio      string   `json:"bio" cbor:"4,keyasint"`
	// PasteIDs is a denormalized index into the paste collection, appended
	// on the forward creation path only and never repaired afterwards.
	PasteIDs []string `json:"paste_ids" cbor:"5,keyasint"`
}

type CreateProfileParams struct {
	Name     string `json:"name"`
	Gravatar string `json:"gravatar"`
	Bio      string `json:"bio"`
}

type UpdateProfileParams struct {
	Name     *string `json:"name,omitempty"`
	Gravatar *string `json:"gravatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

func NewProfile(identity string, p CreateProfileParams) *Profile {
	return &Profile{
		ID:       identity,
		Name:     p.Name,
		Gravatar: p.Gravatar,
		Bio:      p.Bio,
		PasteIDs: []string{},
	}
}

func (pr *Profile) Apply(u UpdateProfileParams) {
	if u.Name != nil {
		pr.Name = *u.Name
	}
	if u.Gravatar != nil {
		pr.Gravatar = *u.Gravatar
	}
	if u.Bio != nil {
		pr.Bio = *u.Bio
	}
}

func (pr *Profile) AddPaste(id string) {
	pr.PasteIDs = append(pr.PasteIDs, id)
}
