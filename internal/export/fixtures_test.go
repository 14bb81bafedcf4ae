package export

import (
	"time"

	"github.com/iksnae/agent-webcall/internal"
)

func testAgents() []internal.Agent {
	return []internal.Agent{
		internal.NewAgent("agent_1", "Support Line"),
		internal.NewAgent("agent_2", ""),
		internal.NewAgent("agent_3", "Sales | EMEA"),
	}
}

func testSession() *internal.Session {
	return &internal.Session{
		CallID:      "c1",
		AccessToken: "secret-token",
		AgentID:     "agent_1",
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
