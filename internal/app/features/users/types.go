package users

import (
	"time"

	"github.com/prabhatdev/gramvani/internal/domain/models"
)

type createRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// userView is the client-facing shape of an account. The password hash
// never leaves the store layer.
type userView struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u models.User) userView {
	v := userView{
		ID:        u.ID.Hex(),
		FullName:  u.FullName,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
	if u.ParentID != nil {
		v.ParentID = u.ParentID.Hex()
	}
	return v
}

func toUserViews(list []models.User) []userView {
	out := make([]userView, 0, len(list))
	for _, u := range list {
		out = append(out, toUserView(u))
	}
	return out
}
