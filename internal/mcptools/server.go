package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewCloneMCPServer creates an MCP server with the website cloning
// tools registered.
func NewCloneMCPServer(svc *CloneService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sitecloner",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clone_website",
		Description: "Start cloning the visual design of a website. Fetches the page, derives a design system, and synthesizes approximating HTML/CSS. Returns a task id to poll.",
	}, svc.CloneWebsite)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_task_status",
		Description: "Return the current lifecycle status of a cloning task (pending, running, completed, failed).",
	}, svc.GetTaskStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_task_result",
		Description: "Return the final generation result for a completed cloning task: quality score, output paths, and any error.",
	}, svc.GetTaskResult)

	return server
}

// RunMCPServer starts an HTTP server exposing the cloning MCP tools.
func RunMCPServer(ctx context.Context, svc *CloneService, addr string) error {
	server := NewCloneMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
