package handler

import (
	"net/http"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// SpinRequest is the optional body of a roulette spin
type SpinRequest struct {
	Payment     entities.PaymentMethod `json:"payment"`
	SkillSlotID *int64                 `json:"skill_slot_id"`
	UseLuck     bool                   `json:"use_luck"`
}

// Spin handles POST /api/v1/roulettes/{rouletteID}/spin
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	rouletteID, err := pathID(r, "rouletteID")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req SpinRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.Spin(r.Context(), actorOf(r), entities.SpinRequest{
		RouletteID:  rouletteID,
		Payment:     req.Payment,
		SkillSlotID: req.SkillSlotID,
		UseLuck:     req.UseLuck,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}
