package services

import "net/http"

// ErrorKind classifies a service failure so the HTTP layer can map it to a
// status code without inspecting messages.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// ServiceError is a user-facing failure raised by the service layer. The
// message is what ends up in the response body.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		// validation and conflicts both surface as 400 here
		return http.StatusBadRequest
	}
}

func validation(msg string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: msg}
}

func conflict(msg string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: msg}
}

func forbidden(msg string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: msg}
}

var (
	// auth / account
	ErrAllFieldsRequired     = validation("Tutti i campi sono richiesti")
	ErrPasswordTooShort      = validation("La password deve essere di almeno 6 caratteri")
	ErrEmailTaken            = conflict("Email già registrata")
	ErrUsernameTaken         = conflict("Username già in uso")
	ErrEmailPasswordRequired = validation("Email e password sono richieste")
	ErrInvalidCredentials    = &ServiceError{Kind: KindUnauthenticated, Message: "Credenziali non valide"}
	ErrAccountDisabled       = &ServiceError{Kind: KindUnauthenticated, Message: "Account disabilitato"}
	ErrUserNotFound          = &ServiceError{Kind: KindNotFound, Message: "Utente non trovato"}

	// profile / password
	ErrNoFieldsToUpdate     = validation("Fornisci almeno un campo da aggiornare")
	ErrInvalidEmail         = validation("Email non valida")
	ErrUsernameInUse        = conflict("Username gia in uso")
	ErrEmailInUse           = conflict("Email gia in uso")
	ErrPasswordsRequired    = validation("Password corrente e nuova password sono richieste")
	ErrNewPasswordTooShort  = validation("La nuova password deve essere di almeno 6 caratteri")
	ErrCurrentPasswordWrong = validation("Password corrente errata")
	ErrResetTokenInvalid    = validation("Token non valido o scaduto.")

	// event lifecycle
	ErrEventNotFound        = &ServiceError{Kind: KindNotFound, Message: "Evento non trovato"}
	ErrEventFieldsRequired  = validation("Tutti i campi obbligatori (titolo, descrizione, data, luogo, capienza, categoria) sono richiesti")
	ErrUpdateEventForbidden = forbidden("Non autorizzato a modificare questo evento")
	ErrDeleteEventForbidden = forbidden("Non autorizzato a eliminare questo evento")
	ErrAlreadyMember        = conflict("Sei gia iscritto a questo evento")
	ErrCapacityExceeded     = conflict("Capienza massima raggiunta per questo evento")
	ErrNotMember            = conflict("Non sei iscritto a questo evento")
	ErrAlreadyReported      = conflict("Hai già segnalato questo evento")

	// chat
	ErrEmptyMessage      = validation("Il messaggio non puo essere vuoto")
	ErrChatPostForbidden = forbidden("Non autorizzato a inviare messaggi in questa chat")
	ErrChatReadForbidden = forbidden("Non autorizzato a visualizzare questa chat")

	// admin user management
	ErrCannotBlockSelf    = validation("Non puoi bloccare te stesso")
	ErrCannotBlockAdmin   = forbidden("Non puoi bloccare un amministratore")
	ErrAlreadyAdminSelf   = validation("Sei già amministratore")
	ErrAlreadyAdmin       = validation("L'utente è già amministratore")
	ErrCannotDemoteSelf   = validation("Non puoi degradare te stesso")
	ErrAlreadyRegularUser = validation("L'utente è già un utente base")
)
