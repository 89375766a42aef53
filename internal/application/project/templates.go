package project

// Template is a canned starter prompt offered on the home screen.
type Template struct {
	Emoji  string `json:"emoji"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// Templates lists the starter prompts.
var Templates = []Template{
	{
		Emoji:  "🎬",
		Title:  "Build a Netflix clone",
		Prompt: "Build a responsive Netflix-style streaming interface with a hero banner for trending content, categorized movie rows from a mock API, a trailer preview modal, search, dark mode and loading skeletons.",
	},
	{
		Emoji:  "📦",
		Title:  "Build an admin dashboard",
		Prompt: "Build an admin dashboard with a collapsible sidebar, analytic widgets, line and bar charts, and a data table with client-side sorting, filtering and pagination over a mock API.",
	},
	{
		Emoji:  "📋",
		Title:  "Build a kanban board",
		Prompt: "Create a kanban board with drag-and-drop between columns, task create/update/delete, board state persisted in localStorage, a search bar and color-coded priorities.",
	},
	{
		Emoji:  "🗂️",
		Title:  "Build a file manager",
		Prompt: "Design a file manager with folder navigation, grid and list views, rename/delete/duplicate actions and breadcrumb navigation, simulating the directory tree in local state.",
	},
	{
		Emoji:  "📺",
		Title:  "Build a YouTube clone",
		Prompt: "Build a YouTube-style home page with a video grid from mock data, category chips, a collapsible sidebar and a video preview modal.",
	},
}
