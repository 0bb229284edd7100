package mapping

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

const bankAPI = `openapi: 3.0.0
info:
  title: Bank API
  version: 1.0.0
paths:
  /auth/token:
    post:
      summary: Аутентификация пользователя
      responses:
        '200':
          description: OK
  /accounts:
    get:
      operationId: getAccounts
      summary: Получение списка счетов пользователя
      responses:
        '200':
          description: OK
  /accounts/{id}:
    get:
      summary: Получение счета по идентификатору
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: OK
  /payments:
    post:
      operationId: createPayment
      summary: Создание платежа
      description: Use field accountId from the response of GET /accounts/{id}
      responses:
        '201':
          description: Created
`

func bankProcess() model.Process {
	return model.Process{
		ID:   "payment-flow",
		Name: "Payment",
		Tasks: []model.ProcessTask{
			{
				ID:       "auth",
				Name:     "Аутентификация: POST /auth/token",
				Endpoint: &model.EndpointHint{Method: "POST", Path: "/auth/token", Description: "Аутентификация"},
			},
			{ID: "lookup", Name: "Lookup", Properties: map[string]string{"api.endpoint": "GET /accounts/{id}"}},
			{ID: "createPayment", Name: "Pay"},
			{ID: "weather", Name: "Forecast weather"},
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(WithLogger(log.Discard()))
}

func TestMap(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	result := newTestService(t).Map(bankProcess(), doc)

	assert.Equal(t, 4, result.TotalTasks)
	assert.Equal(t, 3, result.MatchedTasks)
	assert.Equal(t, 4, result.TotalEndpoints)
	assert.Equal(t, 3, result.MatchedEndpoints)

	require.Contains(t, result.TaskMappings, "auth")
	assert.Equal(t, model.StrategyExact, result.TaskMappings["auth"].Strategy)
	assert.Equal(t, 0.95, result.TaskMappings["auth"].ConfidenceScore)
	assert.Equal(t, model.StrategyCustomProperty, result.TaskMappings["lookup"].Strategy)
	assert.Equal(t, 1.0, result.TaskMappings["createPayment"].ConfidenceScore)

	require.Len(t, result.UnmatchedTasks, 1)
	assert.Equal(t, "weather", result.UnmatchedTasks[0].ElementID)

	var seq, hinted bool
	for _, e := range result.DataFlowEdges {
		assert.Contains(t, result.TaskMappings, e.SourceTaskID)
		assert.Contains(t, result.TaskMappings, e.TargetTaskID)
		if e.SourceTaskID == "lookup" && e.TargetTaskID == "createPayment" {
			if e.Confidence == 0.7 {
				seq = true
				assert.Contains(t, e.Fields, "id")
			}
			if e.Confidence == 0.8 {
				hinted = true
				assert.Equal(t, []string{"accountId"}, e.Fields)
			}
		}
	}
	assert.True(t, seq, "expected the sequential GET -> POST edge")
	assert.True(t, hinted, "expected the description-mined edge")

	// 0.6 * 3/4 + 0.4 * mean(0.95, 0.9, 1.0)
	assert.InDelta(t, 0.6*0.75+0.4*0.95, result.OverallConfidence, 1e-9)
}

func TestMap_NilDocument(t *testing.T) {
	result := newTestService(t).Map(bankProcess(), nil)

	assert.Equal(t, 0, result.TotalEndpoints)
	assert.Empty(t, result.TaskMappings)
	assert.Len(t, result.UnmatchedTasks, 4)
	assert.Empty(t, result.DataFlowEdges)
	assert.Equal(t, 0.0, result.OverallConfidence)
}

func TestMap_EmptyProcess(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	result := newTestService(t).Map(model.Process{ID: "empty"}, doc)
	assert.Empty(t, result.TaskMappings)
	assert.Empty(t, result.UnmatchedTasks)
	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.Equal(t, 4, result.TotalEndpoints)
}

func TestMap_ConcurrentCallsAgree(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)
	svc := newTestService(t)
	want := svc.Map(bankProcess(), doc)

	var wg sync.WaitGroup
	results := make([]model.MappingResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Map(bankProcess(), doc)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestRecommend(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	rec := newTestService(t).Recommend(bankProcess(), doc)
	assert.Equal(t, 4, rec.TotalTasks)
	assert.Equal(t, 3, rec.MatchedTasks)
	require.Len(t, rec.UnmatchedTasks, 1)
	assert.NotEmpty(t, rec.UnmatchedTasks[0].Recommendations)
}

func TestBind(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	process := bankProcess()
	require.True(t, Bind(&process, "weather", "GET", "/accounts"))
	assert.False(t, Bind(&process, "missing", "GET", "/accounts"))
	assert.Equal(t, "GET /accounts", process.Tasks[3].Properties[model.PropertyAPIEndpoint])

	result := newTestService(t).Map(process, doc)
	require.Contains(t, result.TaskMappings, "weather")
	assert.Equal(t, model.StrategyCustomProperty, result.TaskMappings["weather"].Strategy)
	assert.Empty(t, result.UnmatchedTasks)
}

func TestCustomThresholds(t *testing.T) {
	doc, err := catalog.NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	th := model.DefaultThresholds()
	th.MinConfidence = 0.92
	svc := NewService(WithLogger(log.Discard()), WithThresholds(th))
	assert.Equal(t, th, svc.Thresholds())

	result := svc.Map(bankProcess(), doc)
	assert.NotContains(t, result.TaskMappings, "lookup", "0.9 is below the raised floor")
	assert.Contains(t, result.TaskMappings, "auth")
}
