package widget

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Project is one entry of the projects JSON file.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaURL    string `json:"mediaUrl"`
	MediaType   string `json:"mediaType"` // "image" or "video"
	GithubURL   string `json:"githubUrl"`
	LiveURL     string `json:"liveUrl,omitempty"`
}

// HasLiveLink reports whether the project has a live deployment to link to.
// "n.a." marks projects without one.
func (p Project) HasLiveLink() bool {
	u := strings.TrimSpace(p.LiveURL)
	return u != "" && !strings.EqualFold(u, "n.a.")
}

const (
	projectsMaxRetries = 3
	projectsRetryDelay = time.Second
)

type projectsLoadedMsg struct {
	token    uint64
	projects []Project
	err      error
}

type projectsRetryMsg struct {
	token uint64
}

// ProjectGallery lists projects loaded from a JSON file. Failed loads are
// retried automatically a few times; "r" retries on demand.
type ProjectGallery struct {
	id       string
	token    uint64
	path     string
	state    loadState
	projects []Project
	err      error
	retries  int

	retryDelay time.Duration
}

func NewProjectGallery(windowID, path string) *ProjectGallery {
	return &ProjectGallery{id: windowID, token: nextToken(), path: path, retryDelay: projectsRetryDelay}
}

func (g *ProjectGallery) WindowID() string { return g.id }

func (g *ProjectGallery) Init() tea.Cmd {
	return g.load()
}

func (g *ProjectGallery) load() tea.Cmd {
	g.state = stateLoading
	token, path := g.token, g.path
	return func() tea.Msg {
		projects, err := readProjects(path)
		return projectsLoadedMsg{token: token, projects: projects, err: err}
	}
}

func readProjects(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects data: %w", err)
	}
	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("JSON parsing error: %w", err)
	}
	return projects, nil
}

func (g *ProjectGallery) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		if msg.token != g.token {
			return nil
		}
		if msg.err != nil {
			g.state = stateFailed
			g.err = msg.err
			if g.retries < projectsMaxRetries {
				g.retries++
				token := g.token
				return tea.Tick(g.retryDelay, func(time.Time) tea.Msg {
					return projectsRetryMsg{token: token}
				})
			}
			return nil
		}
		g.state = stateReady
		g.err = nil
		g.projects = msg.projects
		return nil

	case projectsRetryMsg:
		if msg.token != g.token {
			return nil
		}
		return g.load()

	case tea.KeyMsg:
		if msg.String() == "r" && g.state == stateFailed {
			g.retries = 0
			return g.load()
		}
	}
	return nil
}

// Projects returns the loaded projects.
func (g *ProjectGallery) Projects() []Project {
	return g.projects
}

func (g *ProjectGallery) View(width, _ int) string {
	switch g.state {
	case stateLoading:
		return mutedStyle.Render("Loading projects...")
	case stateFailed:
		msg := wrap(fmt.Sprintf("Error loading projects: %v", g.err), width)
		return errorStyle.Render(msg) + "\n\n" + mutedStyle.Render("Press r to retry")
	}

	if len(g.projects) == 0 {
		return mutedStyle.Render("No projects yet.")
	}

	var b strings.Builder
	for i, p := range g.projects {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderProject(p, width))
	}
	return b.String()
}

func renderProject(p Project, width int) string {
	var b strings.Builder
	if p.Description != "" {
		b.WriteString(wrap(p.Description, width-2))
	}
	if p.MediaURL != "" {
		kind := p.MediaType
		if kind == "" {
			kind = "image"
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(mutedStyle.Render("[" + kind + "] "))
		b.WriteString(hyperlink(p.MediaURL, p.MediaURL))
	}

	var links []string
	if p.GithubURL != "" {
		links = append(links, hyperlink("GitHub", p.GithubURL))
	}
	if p.HasLiveLink() {
		links = append(links, hyperlink("View Live", p.LiveURL))
	}
	if len(links) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(links, "  "))
	}
	body := indent(b.String(), 2)
	if body == "" {
		return titleStyle.Render(p.Title)
	}
	return titleStyle.Render(p.Title) + "\n" + body
}
