package main

import (
	"errors"
	"net/http"

	"jptraining-backend/services/booking"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/subscription"
	"jptraining-backend/services/timetable"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Booking      booking.Service
	Timetable    timetable.Service
	Subscription subscription.Service
	Notifier     notifier.Service
}

func NewRouter(s Services) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.POST("/book", s.handleBook)
	r.GET("/timetable/sync", s.handleSync)
	r.POST("/subscribe", s.handleSubscribe)
	r.POST("/unsubscribe", s.handleUnsubscribe)
	r.GET("/emails", s.handleListEmails)
	r.GET("/health", s.handleHealth)

	return r
}

func (s Services) handleBook(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, _ := s.Booking.AttemptBooking(c.Request.Context(), req)
	switch result.Outcome {
	case booking.OutcomeSuccess:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": result.Message})
	case booking.OutcomeAuthFailed:
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": result.Message})
	case booking.OutcomeNoAvailability:
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": result.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": result.Message})
	}
}

func (s Services) handleSync(c *gin.Context) {
	summary, err := s.Timetable.Sync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	err = s.Notifier.NotifySubscribers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"updated_dates": summary,
	})
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s Services) handleSubscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	err := s.Subscription.Subscribe(c.Request.Context(), req.Email)
	if errors.Is(err, subscription.ErrAlreadySubscribed) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscribed successfully!"})
}

type unsubscribeRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s Services) handleUnsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var err error
	switch {
	case req.Token != "":
		err = s.Subscription.UnsubscribeByToken(c.Request.Context(), req.Token)
	case req.Email != "":
		err = s.Subscription.Unsubscribe(c.Request.Context(), req.Email)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "either email or token is required"})
		return
	}

	if errors.Is(err, subscription.ErrNotSubscribed) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Email not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed successfully!"})
}

func (s Services) handleListEmails(c *gin.Context) {
	subscribers, err := s.Subscription.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	type subscriberOut struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		CreatedAt int64  `json:"created_at"`
	}
	out := make([]subscriberOut, len(subscribers))
	for i, sub := range subscribers {
		out[i] = subscriberOut{ID: sub.ID, Email: sub.Email, CreatedAt: sub.CreatedAt}
	}
	c.JSON(http.StatusOK, gin.H{"emails": out})
}

func (s Services) handleHealth(c *gin.Context) {
	// also kicks a notification pass, handy for poking the mail
	// path in a deployed instance
	err := s.Notifier.NotifySubscribers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API is running smoothly!"})
}
