package schemas

import "time"

// User is the public view of an account.
type User struct {
	ID        string    `json:"id" doc:"Unique identifier of the user"`
	Email     string    `json:"email" doc:"Email address"`
	Nickname  string    `json:"nickname" doc:"Display name"`
	Birthday  string    `json:"birthday" format:"date" doc:"Date of birth"`
	Age       int       `json:"age" doc:"Age in whole years"`
	Gender    string    `json:"gender" enum:"male,female" doc:"Gender used for the energy target"`
	Weight    float64   `json:"weight" doc:"Weight in kg"`
	Height    float64   `json:"height" doc:"Height in cm"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last profile change"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string  `json:"email" format:"email" doc:"Email address, unique per account"`
	Nickname string  `json:"nickname" minLength:"1" maxLength:"50" doc:"Display name"`
	Birthday string  `json:"birthday" format:"date" example:"1995-04-21" doc:"Date of birth"`
	Gender   string  `json:"gender" example:"female" doc:"male or female (legacy 0/1 accepted)"`
	Weight   float64 `json:"weight" example:"60" doc:"Weight in kg, must be positive"`
	Height   float64 `json:"height" example:"165" doc:"Height in cm, must be positive"`
}

// RegisterResponse is the new account with its first tokens and target.
type RegisterResponse struct {
	Message        string    `json:"message" example:"Registration is complete."`
	Token          TokenPair `json:"token"`
	User           User      `json:"user"`
	Recommendation Macros    `json:"recommendation"`
}

// ProfilePatch changes recommendation inputs. Omitted fields stay as they are.
type ProfilePatch struct {
	Nickname *string  `json:"nickname,omitempty" doc:"Display name"`
	Birthday *string  `json:"birthday,omitempty" format:"date" doc:"Date of birth"`
	Gender   *string  `json:"gender,omitempty" doc:"male or female"`
	Weight   *float64 `json:"weight,omitempty" doc:"Weight in kg"`
	Height   *float64 `json:"height,omitempty" doc:"Height in cm"`
}
