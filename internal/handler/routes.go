package handler

import (
	"net/http"

	"dbadmin/internal/domain"

	"github.com/gorilla/mux"
)

// Routes собирает все маршруты приложения
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(h.recoverPanics, h.logRequests, h.loadIdentity)

	static := http.FileServer(http.Dir(h.cfg.Web.StaticDir))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", static))

	r.HandleFunc("/", h.HomeHandler).Methods(http.MethodGet)
	r.HandleFunc("/Sesion", h.SessionFormHandler).Methods(http.MethodGet)
	r.HandleFunc("/register", h.RegisterHandler).Methods(http.MethodPost)
	r.HandleFunc("/login", h.LoginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.LogoutHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/token", h.IssueTokenHandler).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(h.requireAuth)
	authed.HandleFunc("/configurar-db", h.ConfigureFormHandler).Methods(http.MethodGet)
	authed.HandleFunc("/configurar-db", h.ConfigureHandler).Methods(http.MethodPost)

	admin := r.NewRoute().Subrouter()
	admin.Use(h.requireAuth, h.requireRole(domain.RoleAdmin))
	admin.HandleFunc("/actualizar-rol", h.UpdateRoleHandler).Methods(http.MethodPost)

	// маршруты ниже работают с активным пулом целевого сервера
	reader := r.NewRoute().Subrouter()
	reader.Use(h.requireAuth, h.withTarget)
	reader.HandleFunc("/bases-de-datos", h.DatabasesHandler).Methods(http.MethodGet)
	reader.HandleFunc("/ver-db", h.DatabaseHandler).Methods(http.MethodGet)
	reader.HandleFunc("/ver-tabla", h.TableHandler).Methods(http.MethodGet)
	reader.HandleFunc("/agregar-datos", h.NewRowFormHandler).Methods(http.MethodGet)
	// вставку пропускает только admin, проверка внутри engine
	reader.HandleFunc("/agregar-datos", h.InsertRowHandler).Methods(http.MethodPost)

	writer := r.NewRoute().Subrouter()
	writer.Use(h.requireAuth, h.requireRole(domain.RoleAdmin), h.withTarget)
	writer.HandleFunc("/crear-db", h.CreateDatabaseHandler).Methods(http.MethodPost)
	writer.HandleFunc("/borrar-db", h.DropDatabaseHandler).Methods(http.MethodPost)
	writer.HandleFunc("/agregar-tabla", h.NewTableFormHandler).Methods(http.MethodGet)
	writer.HandleFunc("/crear-tabla", h.CreateTableHandler).Methods(http.MethodPost)
	writer.HandleFunc("/modificar-tabla", h.ModifyTableHandler).Methods(http.MethodGet)
	writer.HandleFunc("/agregar-campo", h.AddColumnHandler).Methods(http.MethodPost)
	writer.HandleFunc("/borrar-campo", h.DropColumnHandler).Methods(http.MethodPost)
	writer.HandleFunc("/borrar-tabla", h.DropTableHandler).Methods(http.MethodPost)
	writer.HandleFunc("/editar-registro", h.EditRowFormHandler).Methods(http.MethodGet)
	writer.HandleFunc("/actualizar-registro", h.UpdateRowHandler).Methods(http.MethodPost)
	writer.HandleFunc("/eliminar-registro", h.DeleteRowHandler).Methods(http.MethodPost)

	return r
}
