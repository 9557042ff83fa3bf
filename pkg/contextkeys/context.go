package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// ViewerIDKey - ключ gin.Context, под которым хранится ID пользователя, выполняющего запрос.
// Значение выставляет ViewerMiddleware из заголовка шлюза.
const ViewerIDKey = contextKey("viewer_id")

// ViewerHeader - заголовок, который проставляет API-шлюз после аутентификации
const ViewerHeader = "X-User-ID"
