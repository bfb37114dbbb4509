package metrics

// IncrementBoardCreated increments board creation counter
func (m *Metrics) IncrementBoardCreated() {
	m.safeExecute("IncrementBoardCreated", func() {
		m.BoardCreatedTotal.Inc()
	})
}

// IncrementFeedbackCreated increments feedback creation counter
func (m *Metrics) IncrementFeedbackCreated() {
	m.safeExecute("IncrementFeedbackCreated", func() {
		m.FeedbackCreatedTotal.Inc()
	})
}

// IncrementCommentCreated increments comment creation counter
func (m *Metrics) IncrementCommentCreated() {
	m.safeExecute("IncrementCommentCreated", func() {
		m.CommentCreatedTotal.Inc()
	})
}

// RecordUpvoteToggle counts one toggle as "added" or "removed"
func (m *Metrics) RecordUpvoteToggle(upvoted bool) {
	m.safeExecute("RecordUpvoteToggle", func() {
		action := "removed"
		if upvoted {
			action = "added"
		}
		m.UpvoteToggledTotal.WithLabelValues(action).Inc()
	})
}

// RecordFeedbackMoved counts one status move
func (m *Metrics) RecordFeedbackMoved(status string) {
	m.safeExecute("RecordFeedbackMoved", func() {
		m.FeedbackMovedTotal.WithLabelValues(status).Inc()
	})
}

// RecordLoginAttempt counts a token request as "success" or "failure"
func (m *Metrics) RecordLoginAttempt(success bool) {
	m.safeExecute("RecordLoginAttempt", func() {
		result := "failure"
		if success {
			result = "success"
		}
		m.LoginAttemptsTotal.WithLabelValues(result).Inc()
	})
}

// SetUsersTotal sets total users gauge
func (m *Metrics) SetUsersTotal(count int64) {
	m.safeExecute("SetUsersTotal", func() {
		m.UsersTotal.Set(float64(count))
	})
}

// SetBoardsTotal sets total boards gauge
func (m *Metrics) SetBoardsTotal(count int64) {
	m.safeExecute("SetBoardsTotal", func() {
		m.BoardsTotal.Set(float64(count))
	})
}

// SetFeedbackTotal sets total feedback gauge
func (m *Metrics) SetFeedbackTotal(count int64) {
	m.safeExecute("SetFeedbackTotal", func() {
		m.FeedbackTotal.Set(float64(count))
	})
}

// SetTagsTotal sets total tags gauge
func (m *Metrics) SetTagsTotal(count int64) {
	m.safeExecute("SetTagsTotal", func() {
		m.TagsTotal.Set(float64(count))
	})
}
