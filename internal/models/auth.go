// Входные/выходные модели REST-обмена с бэкендом (auth).
package models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

type RegisterResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	RentingStatus bool   `json:"rentingStatus"`
}
