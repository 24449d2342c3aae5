package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
)

func (s *HandlerSuite) TestEvents() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	s.Require().NoError(err)
	resp, err := srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	s.Require().Eventually(func() bool { return s.broker.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	rr := s.do(http.MethodPost, "/topics", manager, map[string]any{"title": "lights", "category": "DECISION"})
	s.Require().Equal(http.StatusCreated, rr.Code)

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		s.Require().NoError(err)
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
		}
	}
	s.Equal("topic_changed", event)
	s.Contains(data, `"topic":"lights"`)
	s.Contains(data, `"status":"IDLE"`)

}
