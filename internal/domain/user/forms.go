package user

// RegistrationForm is the fixed-shape body of POST /users/register.
type RegistrationForm struct {
	FirstName string `json:"firstname" validate:"required,max=100"`
	LastName  string `json:"lastname" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,phone10"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileForm is a full replacement of the profile: fields left out are
// written back empty. An empty Password keeps the stored hash.
type ProfileForm struct {
	FirstName string `json:"firstname" validate:"max=100"`
	LastName  string `json:"lastname" validate:"max=100"`
	Phone     string `json:"phone" validate:"phone10"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (f RegistrationForm) Validate() error { return validateStruct(f) }

func (f LoginForm) Validate() error { return validateStruct(f) }

func (f ProfileForm) Validate() error { return validateStruct(f) }
