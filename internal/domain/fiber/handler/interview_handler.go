package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/careermentor/career-mentor/internal/dto"
	"github.com/careermentor/career-mentor/internal/middleware"
	"github.com/careermentor/career-mentor/internal/model"
	"github.com/careermentor/career-mentor/internal/usecase"
	"github.com/careermentor/career-mentor/internal/util"
	"github.com/gofiber/fiber/v2"
)

type InterviewHandler struct {
	uc *usecase.InterviewUsecase
}

func NewInterviewHandler(uc *usecase.InterviewUsecase) *InterviewHandler {
	return &InterviewHandler{uc: uc}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/upload-resume", middleware.RateLimiter(5, 1*time.Minute), h.UploadResume)
	api.Post("/submit-answer", h.SubmitAnswer)
	api.Post("/start-monitoring", h.StartMonitoring)
	api.Get("/check-monitoring-status/:session_id", h.CheckMonitoringStatus)
	api.Post("/run-ats-check", h.RunATSCheck)
	api.Post("/generate-report", h.GenerateReport)
	api.Get("/download-report/:session_id", h.DownloadReport)
	api.Post("/generate-ats-report", h.GenerateATSReport)
	api.Get("/download-ats-report/:session_id", h.DownloadATSReport)
	api.Post("/save-interview-result", h.SaveInterviewResult)
	api.Post("/save-ats-result", h.SaveATSResult)
	api.Get("/get-user-stats/:user_id", h.GetUserStats)
	api.Post("/jobs", h.AddJobPosting)
	api.Get("/create-job-embedding", h.RefreshJobEmbeddings)
	api.Get("/healthz", h.Healthz)
}

func (h *InterviewHandler) UploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is required",
		}, err)
	}
	if file.Size > 10*1024*1024 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file size is too large (max 10MB)",
		})
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "only PDF resumes are supported",
		})
	}

	content, err := readMultipartFile(file)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot read resume file",
		}, err)
	}

	session, err := h.uc.CreateSession(c.Context(), content, file.Filename)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to create session",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success create session",
		Data: dto.SessionDTO{
			SessionID: session.ID,
			Questions: session.Questions,
			CreatedAt: session.CreatedAt,
		},
	})
}

// SubmitAnswer accepts either a JSON body (text and code answers) or a
// multipart form with an "audio" file part.
func (h *InterviewHandler) SubmitAnswer(c *fiber.Ctx) error {
	sub, err := h.parseSubmission(c)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid submission payload",
		}, err)
	}

	transcript, evaluation, err := h.uc.SubmitAnswer(c.Context(), sub)
	if err != nil {
		return h.mapError(c, err, "failed to submit answer")
	}

	data := dto.SubmitAnswerDTO{Evaluation: evaluation}
	if sub.Kind == model.AnswerKindAudio {
		data.Transcript = transcript
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success submit answer",
		Data:    data,
	})
}

func (h *InterviewHandler) parseSubmission(c *fiber.Ctx) (usecase.AnswerSubmission, error) {
	contentType := string(c.Request().Header.ContentType())
	if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		file, err := c.FormFile("audio")
		if err != nil {
			return usecase.AnswerSubmission{}, err
		}
		audio, err := readMultipartFile(file)
		if err != nil {
			return usecase.AnswerSubmission{}, err
		}
		index, err := strconv.Atoi(c.FormValue("question_index", "0"))
		if err != nil {
			return usecase.AnswerSubmission{}, err
		}
		mime := file.Header.Get("Content-Type")
		if mime == "" {
			mime = "audio/wav"
		}
		return usecase.AnswerSubmission{
			SessionID:     c.FormValue("session_id"),
			QuestionIndex: index,
			Kind:          model.AnswerKindAudio,
			Audio:         audio,
			AudioMime:     mime,
		}, nil
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return usecase.AnswerSubmission{}, err
	}
	kind := model.AnswerKind(req.Kind)
	if req.Kind == "" {
		kind = model.AnswerKindText
	}
	return usecase.AnswerSubmission{
		SessionID:     req.SessionID,
		QuestionIndex: req.QuestionIndex,
		Kind:          kind,
		Answer:        req.Answer,
	}, nil
}

func (h *InterviewHandler) StartMonitoring(c *fiber.Ctx) error {
	var req dto.StartMonitoringRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	path, err := h.uc.StartMonitoring(req.SessionID, req.Duration)
	if err != nil {
		return h.mapError(c, err, "failed to start monitoring")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success start monitoring",
		Data:    fiber.Map{"status": "started", "report_path": path},
	})
}

func (h *InterviewHandler) CheckMonitoringStatus(c *fiber.Ctx) error {
	state, err := h.uc.CheckMonitoring(c.Params("session_id"))
	if err != nil {
		return h.mapError(c, err, "failed to check monitoring status")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success check monitoring status",
		Data:    state,
	})
}

func (h *InterviewHandler) RunATSCheck(c *fiber.Ctx) error {
	var req dto.RunATSCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	result, err := h.uc.RunATSCheck(c.Context(), req.SessionID, req.JobDescription)
	if err != nil {
		return h.mapError(c, err, "failed to run ats check")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success run ats check",
		Data:    result,
	})
}

func (h *InterviewHandler) GenerateReport(c *fiber.Ctx) error {
	var req dto.SessionIDRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	result, err := h.uc.GenerateReport(c.Context(), req.SessionID)
	if err != nil {
		return h.mapError(c, err, "failed to generate report")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success generate report",
		Data:    result,
	})
}

func (h *InterviewHandler) GenerateATSReport(c *fiber.Ctx) error {
	var req dto.SessionIDRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	result, err := h.uc.GenerateATSReport(req.SessionID)
	if err != nil {
		return h.mapError(c, err, "failed to generate ats report")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success generate ats report",
		Data:    result,
	})
}

func (h *InterviewHandler) DownloadReport(c *fiber.Ctx) error {
	target, err := h.uc.DownloadReport(c.Params("session_id"))
	if err != nil {
		return h.mapError(c, err, "failed to download report")
	}
	return h.serveTarget(c, target)
}

func (h *InterviewHandler) DownloadATSReport(c *fiber.Ctx) error {
	target, err := h.uc.DownloadATSReport(c.Params("session_id"))
	if err != nil {
		return h.mapError(c, err, "failed to download ats report")
	}
	return h.serveTarget(c, target)
}

func (h *InterviewHandler) serveTarget(c *fiber.Ctx, target *usecase.DownloadTarget) error {
	if target.SignedURL != nil {
		return c.Redirect(*target.SignedURL, fiber.StatusFound)
	}
	return c.Download(target.LocalPath)
}

func (h *InterviewHandler) SaveInterviewResult(c *fiber.Ctx) error {
	var req dto.SaveInterviewResultRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	stats, err := h.uc.SaveInterviewResult(req.UserID, req.Score, req.Questions, req.SessionID)
	if err != nil {
		return h.mapError(c, err, "failed to save interview result")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success save interview result",
		Data:    dto.NewUserStatsDTO(stats),
	})
}

func (h *InterviewHandler) SaveATSResult(c *fiber.Ctx) error {
	var req dto.SaveATSResultRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	stats, err := h.uc.SaveATSResult(req.UserID, req.Score)
	if err != nil {
		return h.mapError(c, err, "failed to save ats result")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success save ats result",
		Data:    dto.NewUserStatsDTO(stats),
	})
}

func (h *InterviewHandler) GetUserStats(c *fiber.Ctx) error {
	stats, err := h.uc.GetUserStats(c.Params("user_id"))
	if err != nil {
		return h.mapError(c, err, "failed to get user stats")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get user stats",
		Data:    dto.NewUserStatsDTO(stats),
	})
}

func (h *InterviewHandler) AddJobPosting(c *fiber.Ctx) error {
	var req dto.JobPostingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}
	if req.Title == "" || req.Content == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "title and content are required",
		})
	}

	job, err := h.uc.AddJobPosting(c.Context(), req.Title, req.Content)
	if err != nil {
		return h.mapError(c, err, "failed to add job posting")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success add job posting",
		Data:    fiber.Map{"id": job.ID, "title": job.Title},
	})
}

func (h *InterviewHandler) RefreshJobEmbeddings(c *fiber.Ctx) error {
	updated, err := h.uc.RefreshJobEmbeddings(c.Context())
	if err != nil {
		return h.mapError(c, err, "failed to create job embeddings")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success create job embeddings",
		Data:    fiber.Map{"updated": updated},
	})
}

func (h *InterviewHandler) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// mapError translates domain sentinels into the right HTTP status.
func (h *InterviewHandler) mapError(c *fiber.Ctx, err error, message string) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrReportNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidQuestionIndex),
		errors.Is(err, model.ErrUnsupportedAnswerKind),
		errors.Is(err, model.ErrMissingUserID),
		errors.Is(err, model.ErrMonitoringNotStarted),
		errors.Is(err, model.ErrATSNotRun):
		code = fiber.StatusBadRequest
	case errors.Is(err, model.ErrMonitoringActive):
		code = fiber.StatusConflict
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    code,
		Message: message,
	}, err)
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
