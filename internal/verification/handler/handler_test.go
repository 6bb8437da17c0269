package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pastmatters/internal/verification/handler/mocks"
	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/service"
	"pastmatters/internal/verification/uploads"
	"pastmatters/pkg/domain"
	dErrors "pastmatters/pkg/domain-errors"
	"pastmatters/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	photos  *mocks.MockPhotoStore
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.photos = mocks.NewMockPhotoStore(ctrl)
	s.photos.EXPECT().MaxBytes().Return(int64(1024)).AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, s.photos, logger).Register(s.router)
}

func (s *HandlerSuite) TestBanner() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
	s.Equal(Banner, (*body)["message"])
}

func (s *HandlerSuite) TestSearchByName() {
	jobID := domain.NewJobID()
	s.service.EXPECT().Submit(gomock.Any(), models.SubjectInput{
		Name:        "Kiran Das",
		DateOfBirth: "1988-02-29",
		State:       "Kerala",
		Email:       "kiran@example.com",
	}).Return(&service.Submission{
		JobID:         jobID,
		Status:        models.StatusQueued,
		EstimatedTime: service.DefaultEstimatedTime,
	}, nil)

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", map[string]string{
		"name":  "Kiran Das",
		"dob":   "1988-02-29",
		"state": "Kerala",
		"email": "kiran@example.com",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[SearchAcceptedResponse](s.T(), rr)
	s.Equal(jobID.String(), resp.JobID)
	s.Equal(models.StatusQueued, resp.Status)
	s.Equal(180, resp.EstimatedTime)
	s.Equal("/api/search/"+jobID.String()+"/status", resp.StatusURL)
}

func (s *HandlerSuite) TestSearchByPhotoOnly() {
	photoID := domain.NewPhotoID()
	s.photos.EXPECT().Save(gomock.Any(), gomock.Any()).Return(photoID, nil)
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, input models.SubjectInput) (*service.Submission, error) {
			s.Empty(input.Name)
			s.Require().NotNil(input.Photo)
			s.Equal(photoID, *input.Photo)
			return &service.Submission{JobID: domain.NewJobID(), Status: models.StatusQueued}, nil
		})

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", nil,
		testutil.FormFile{Field: "photo", Filename: "me.png", Content: []byte("\x89PNG\r\n\x1a\n")})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
}

func (s *HandlerSuite) TestSearchRejectsUnidentifiableSubject() {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", map[string]string{"name": "Only Name"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal(string(dErrors.CodeValidation), body["error"])
}

func (s *HandlerSuite) TestSearchRejectsBadPhoto() {
	s.photos.EXPECT().Save(gomock.Any(), gomock.Any()).
		Return(domain.PhotoID{}, dErrors.New(dErrors.CodeValidation, "photo must be a JPEG, PNG or WebP image"))

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", nil,
		testutil.FormFile{Field: "photo", Filename: "doc.pdf", Content: []byte("%PDF-1.7")})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Contains(body["error_description"], "JPEG")
}

func (s *HandlerSuite) TestSearchRequiresMultipart() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/search", map[string]string{"name": "A"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestSearchWhenQueueIsFull() {
	s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "too many searches in progress, retry later"))

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", map[string]string{"name": "A", "dob": "1990-01-01"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
}

func (s *HandlerSuite) TestRejectedSearchDeletesPhoto() {
	for name, rejection := range map[string]error{
		"queue full":   dErrors.New(dErrors.CodeUnavailable, "too many searches in progress, retry later"),
		"invalid dob":  dErrors.New(dErrors.CodeValidation, "dob must be YYYY-MM-DD"),
		"insert fails": dErrors.New(dErrors.CodeInternal, "failed to create search"),
	} {
		s.Run(name, func() {
			photoID := domain.NewPhotoID()
			gomock.InOrder(
				s.photos.EXPECT().Save(gomock.Any(), gomock.Any()).Return(photoID, nil),
				s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, rejection),
				s.photos.EXPECT().Delete(gomock.Any(), photoID).Return(nil),
			)

			req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/search", map[string]string{"dob": "01/02/1990"},
				testutil.FormFile{Field: "photo", Filename: "me.png", Content: []byte("\x89PNG\r\n\x1a\n")})
			rr := testutil.DoRequest(s.router, req)
			s.Equal(dErrors.HTTPStatus(dErrors.CodeOf(rejection)), rr.Code)
		})
	}
}

func (s *HandlerSuite) TestStatus() {
	jobID := domain.NewJobID()
	completedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Run("completed search links its result", func() {
		s.service.EXPECT().Status(gomock.Any(), jobID).Return(&service.StatusView{
			JobID:       jobID,
			Status:      models.StatusCompleted,
			Progress:    models.Progress{Overall: 100, Stages: map[models.Stage]int{models.StageRiskCalculation: 100}},
			CompletedAt: &completedAt,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+jobID.String()+"/status"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[SearchStatusResponse](s.T(), rr)
		s.Equal("/api/search/"+jobID.String()+"/result", resp.ResultURL)
		s.Equal(100, resp.Progress.Overall)
		s.Empty(resp.Error)
	})

	s.Run("failed search carries its error", func() {
		s.service.EXPECT().Status(gomock.Any(), jobID).Return(&service.StatusView{
			JobID:  jobID,
			Status: models.StatusFailed,
			Error:  "verification run failed: store down",
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+jobID.String()+"/status"))
		resp := testutil.UnmarshalResponse[SearchStatusResponse](s.T(), rr)
		s.Empty(resp.ResultURL)
		s.Equal("verification run failed: store down", resp.Error)
	})

	s.Run("malformed id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/not-a-uuid/status"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("unknown id", func() {
		s.service.EXPECT().Status(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "search not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+domain.NewJobID().String()+"/status"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *HandlerSuite) TestResult() {
	jobID := domain.NewJobID()

	s.Run("not ready", func() {
		s.service.EXPECT().Result(gomock.Any(), jobID).Return(nil, dErrors.New(dErrors.CodeNotReady, "search not completed yet"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+jobID.String()+"/result"))
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(string(dErrors.CodeNotReady), body["error"])
	})

	s.Run("completed", func() {
		s.service.EXPECT().Result(gomock.Any(), jobID).Return(&models.Result{
			Subject:    models.SubjectInfo{Name: "Kiran Das"},
			Assessment: models.RiskAssessment{OverallScore: 42, RiskCategory: models.RiskHigh},
		}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+jobID.String()+"/result"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		risk := (*body)["risk_score"].(map[string]any)
		s.Equal(float64(42), risk["overall_score"])
		s.Equal("high", risk["risk_category"])
	})

	s.Run("internal failures are not leaked", func() {
		s.service.EXPECT().Result(gomock.Any(), jobID).Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to load search"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/search/"+jobID.String()+"/result"))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Empty(body["error_description"])
	})
}

func TestRejectedSearchLeavesNoUpload(t *testing.T) {
	dir := t.TempDir()
	photos, err := uploads.NewDirStore(dir, 1024)
	require.NoError(t, err)

	svc := mocks.NewMockService(gomock.NewController(t))
	svc.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "too many searches in progress, retry later")).
		Times(3)

	router := chi.NewRouter()
	New(svc, photos, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	for range 3 {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/api/search", nil,
			testutil.FormFile{Field: "photo", Filename: "me.png", Content: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
