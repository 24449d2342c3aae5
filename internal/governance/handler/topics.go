package handler

import (
	"net/http"

	"condo/internal/governance/models"
	"condo/pkg/platform/httputil"
	"condo/pkg/requestcontext"
)

func (h *Handler) HandleGetTopics(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	out, err := h.service.GetTopics(r.Context(), page, size)
	if err != nil {
		h.fail(w, r, "get_topics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.service.GetTopic(r.Context(), pathTitle(r))
	if err != nil {
		h.fail(w, r, "get_topic", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, topic)
}

// HandleAddTopic handles POST /topics.
func (h *Handler) HandleAddTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[AddTopicRequest](w, r, h.logger)
	if !ok {
		return
	}
	topic, err := h.service.AddTopic(ctx, caller, req.Draft())
	if err != nil {
		h.fail(w, r, "add_topic", err)
		return
	}
	h.logger.InfoContext(ctx, "topic added",
		"request_id", requestcontext.RequestID(ctx),
		"title", topic.Title,
		"category", topic.Category.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, topic)
}

// HandleEditTopic handles PATCH /topics/{title}.
func (h *Handler) HandleEditTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[EditTopicRequest](w, r, h.logger)
	if !ok {
		return
	}
	topic, err := h.service.EditTopic(ctx, caller, pathTitle(r), req.Patch())
	if err != nil {
		h.fail(w, r, "edit_topic", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, topic)
}

func (h *Handler) HandleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveTopic(r.Context(), caller, pathTitle(r)); err != nil {
		h.fail(w, r, "remove_topic", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleOpenVoting(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	topic, err := h.service.OpenVoting(r.Context(), caller, pathTitle(r))
	if err != nil {
		h.fail(w, r, "open_voting", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, topic)
}

// HandleVote handles POST /topics/{title}/votes.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[VoteRequest](w, r, h.logger)
	if !ok {
		return
	}
	vote, err := h.service.Vote(ctx, caller, pathTitle(r), req.option)
	if err != nil {
		h.fail(w, r, "vote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vote)
}

// HandleGetVotes returns the ballots, their count and the tally.
func (h *Handler) HandleGetVotes(w http.ResponseWriter, r *http.Request) {
	title := pathTitle(r)
	votes, err := h.service.GetVotes(r.Context(), title)
	if err != nil {
		h.fail(w, r, "get_votes", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VotesResponse{
		Topic: title,
		Count: len(votes),
		Tally: models.TallyVotes(votes),
		Votes: votes,
	})
}

func (h *Handler) HandleCloseVoting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	topic, err := h.service.CloseVoting(ctx, caller, pathTitle(r))
	if err != nil {
		h.fail(w, r, "close_voting", err)
		return
	}
	h.logger.InfoContext(ctx, "voting closed",
		"request_id", requestcontext.RequestID(ctx),
		"title", topic.Title,
		"status", topic.Status.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, topic)
}
