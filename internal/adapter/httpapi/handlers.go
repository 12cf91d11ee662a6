package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MagicCL33/Dashboard/internal/usecase/assets"
	"github.com/MagicCL33/Dashboard/internal/usecase/projects"
	"github.com/MagicCL33/Dashboard/internal/usecase/snapshots"
	"github.com/MagicCL33/Dashboard/internal/usecase/trades"
)

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Assets.List(r.Context()))
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Assets.Get(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) addTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.svc.Assets.AddTransaction(r.Context(), assets.TransactionInput{
		Symbol:   req.Symbol,
		Quantity: req.Quantity.Decimal(),
		Cost:     req.Cost.Decimal(),
		Date:     day(req.Date),
		Name:     req.Name,
		Notes:    req.Notes,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) annotateAsset(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.svc.Assets.Annotate(r.Context(), mux.Vars(r)["symbol"], req.Name, req.Notes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) removeAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Assets.Remove(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshPrices runs the daily gate on demand. It is still a no-op once today's prices are in.
func (s *Server) refreshPrices(w http.ResponseWriter, r *http.Request) {
	if s.svc.Gate == nil {
		writeError(w, http.StatusServiceUnavailable, "price oracle not configured")
		return
	}
	out, err := s.svc.Gate.MaybeRefresh(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID(r.Context())).Msg("explicit price refresh failed")
		writeError(w, http.StatusBadGateway, "price oracle unavailable")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Projects.List(r.Context()))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.svc.Projects.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) recordAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.svc.Projects.RecordAction(r.Context(), projects.RecordActionInput{
		ProjectName: req.Project,
		Date:        day(req.Date),
		Wallet:      req.Wallet,
		Amount:      req.Amount.Decimal(),
		Note:        req.Note,
		Status:      req.Status,
		TargetGain:  req.TargetGain.Ptr(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req projectUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.svc.Projects.UpdateProject(r.Context(), id, projects.UpdateProjectInput{
		Name:       req.Name,
		Status:     req.Status,
		TargetGain: req.TargetGain.Ptr(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) removeProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Projects.RemoveProject(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entryId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.svc.Projects.RemoveAction(r.Context(), id, entryID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Trades.List(r.Context()))
}

func (s *Server) recordTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.svc.Trades.Record(r.Context(), trades.RecordTradeInput{
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity.Decimal(),
		Price:    req.Price.Decimal(),
		Date:     day(req.Date),
		Note:     req.Note,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) removeTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Trades.Remove(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getValuation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Valuation.Get(r.Context()))
}

func (s *Server) getSnapshots(w http.ResponseWriter, r *http.Request) {
	window := snapshots.ParseWindow(r.URL.Query().Get("window"))
	writeJSON(w, http.StatusOK, s.svc.Snapshots.Stats(r.Context(), window))
}
