package http

import (
	"net/http"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, userID int64) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := s.repo.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, notificationToView(n))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.MarkNotificationRead(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	notification, err := s.repo.GetNotification(r.Context(), id, userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, notificationToView(notification))
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request, userID int64) {
	count, err := s.repo.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"updated": count})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteNotification(r.Context(), id, userID); err != nil {
		respondOpError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"deleted": true})
}
