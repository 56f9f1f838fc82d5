package models

// Validate checks the required fields and, for a binary payload, the
// media type and size.
func (p *NewPost) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.Media.IsFile() {
		if _, err := p.Media.Inspect(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the update meets all validation requirements
func (u *PostUpdate) Validate() error {
	return validate.Struct(u)
}
