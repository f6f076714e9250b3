package dto

// CreateSessionRequest is the body of POST /api/sessions/.
type CreateSessionRequest struct {
	Quiz uint `json:"quiz" binding:"required"`
}

// CreatePlayerRequest is the body of POST /api/players/.
type CreatePlayerRequest struct {
	SessionCode string `json:"session_code" binding:"required"`
	Name        string `json:"name" binding:"required"`
}
