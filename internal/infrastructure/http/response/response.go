package response

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mrops-br/products-rbac-api/internal/app/dto"
	"github.com/mrops-br/products-rbac-api/internal/domain"
)

const (
	MsgAccessDenied    = "Access denied"
	MsgNotFound        = "Product not found"
	MsgRemoved         = "Product removed"
	MsgNoToken         = "No token, authorization denied"
	MsgInvalidToken    = "Token is not valid"
	serverErrorMessage = "Server error"
)

// JSON sends a JSON response
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// Message sends a {"msg": ...} body
func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, dto.MessageResponse{Msg: msg})
}

// Validation sends 400 with every rejected field
func Validation(w http.ResponseWriter, r *http.Request, err *domain.ValidationError) {
	JSON(w, r, http.StatusBadRequest, dto.ValidationErrorResponse{Errors: err.Fields})
}

// ServerError sends the generic plain-text 500 body. Error details stay in
// the logs.
func ServerError(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusInternalServerError)
	render.PlainText(w, r, serverErrorMessage)
}
