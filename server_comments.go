package main

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxCommentLength = 500

func (s *server) postComment(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = r.ParseForm()
	if err != nil {
		s.renderImage(w, r, http.StatusBadRequest, "", "The comment could not be read.")
		return
	}

	content := strings.TrimSpace(r.PostForm.Get("content"))
	switch {
	case content == "":
		s.renderImage(w, r, http.StatusBadRequest, "", "Please write a comment first.")
		return
	case utf8.RuneCountInString(content) > maxCommentLength:
		s.renderImage(w, r, http.StatusBadRequest, content, "Comments are limited to 500 characters.")
		return
	}

	_, err = s.api.AddComment(r.Context(), id, content)
	if err != nil {
		redirectWithFlash(w, r, "/image/"+id+"#comments", "Failed to add comment. Please try again.")
		return
	}
	s.commentsChanged(r.Context(), id)

	http.Redirect(w, r, "/image/"+id+"#comments", http.StatusSeeOther)
}

func (s *server) postDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	commentID, err := uuidParam(r, "comment-id")
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, err)
		return
	}

	err = s.api.DeleteComment(r.Context(), id, commentID)
	if err != nil {
		redirectWithFlash(w, r, "/image/"+id+"#comments", "Failed to delete comment. Please try again.")
		return
	}
	s.commentsChanged(r.Context(), id)

	http.Redirect(w, r, "/image/"+id+"#comments", http.StatusSeeOther)
}
