package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	scheduler   *scheduling.Service
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, scheduler *scheduling.Service, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		scheduler:   scheduler,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// everything below requires a logged-in user
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateGroup)
			r.Get("/", h.GetAllGroups)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Use(h.group)
				r.Get("/", h.GetGroup)
				r.With(h.requireGroupAdmin).Patch("/", h.UpdateGroup)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteGroup)
				r.Route("/members", func(r chi.Router) {
					r.Use(h.requireGroupAdmin)
					r.Post("/", h.AddGroupMember)
					r.Delete("/{userID}", h.RemoveGroupMember)
				})

				r.Route("/preferences", func(r chi.Router) {
					r.Use(h.myInfo)
					r.Use(h.preventInactiveUser)
					r.Put("/", h.SubmitWeeklyPreferences)
					r.Get("/", h.GetMyWeeklyPreferences)
					r.Patch("/", h.UpdateWeeklyPreferences)
					r.Get("/status", h.GetPreferenceStatus)
					r.With(h.requireGroupAdmin).Post("/reminders", h.SendPreferenceReminders)
				})

				r.Route("/schedules", func(r chi.Router) {
					r.Use(h.myInfo)
					r.With(h.requireGroupAdmin).Post("/generate", h.GenerateWeeklySchedule)
					r.Get("/", h.GetGroupSchedules)
					r.Get("/fairness", h.GetFairnessMetrics)
				})

				r.Get("/trips", h.GetGroupTrips)
			})
		})

		r.Route("/schedules/{id}", func(r chi.Router) {
			r.Get("/", h.GetSchedule)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateSchedule)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteSchedule)
			r.Get("/trips", h.GetScheduleTrips)
		})
	})
}
