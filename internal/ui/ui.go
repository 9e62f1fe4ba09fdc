package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/tasks"
	"github.com/desertthunder/ecn/internal/views"
)

// Screen is a view of the TUI.
type Screen int

const (
	LoadingScreen Screen = iota
	LoginScreen
	MenuScreen
	MembersScreen
	BooksScreen
	ConfirmScreen
	FormScreen
)

// ActivityRecorder stores audit entries. [*repositories.ActivityRepository] implements it.
type ActivityRecorder interface {
	Record(a *models.Activity) error
}

// Options contains the dependencies of the TUI.
type Options struct {
	Store      *auth.Store
	Auth       *services.AuthService
	API        *services.APIService
	Activities ActivityRecorder
	Prefs      Prefs
	PrefsPath  string
	Logger     *log.Logger
}

// pendingDelete is the record awaiting confirmation.
type pendingDelete struct {
	target Screen
	id     string
	label  string
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *log.Logger
	screen Screen
	width  int
	height int

	styles   *Palette
	prefs    Prefs
	help     help.Model
	keys     keyMap
	spinner  spinner.Model
	progress progress.Model

	email      textinput.Model
	password   textinput.Model
	loginFocus int
	loginBusy  bool
	loginErr   string

	menu       list.Model
	memberList list.Model
	bookList   list.Model
	members    *views.ListView[models.Member]
	books      *views.ListView[models.Book]

	pending pendingDelete

	formTarget Screen
	memberForm *views.FormView[models.Member, models.MemberForm]
	bookForm   *views.FormView[models.Book, models.BookForm]
	editor     editor
	submission *tasks.Submission
	percent    int

	notice *views.Notice
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Prefs.Theme == "" {
		opts.Prefs = DefaultPrefs()
	}

	email := newInput("admin@example.org", "")
	email.Focus()
	password := newInput("password", "")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		ctx:        ctx,
		opts:       opts,
		logger:     opts.Logger,
		screen:     LoadingScreen,
		width:      80,
		height:     24,
		prefs:      opts.Prefs,
		styles:     ThemePalette(opts.Prefs.Theme),
		help:       help.New(),
		keys:       newKeyMap(),
		spinner:    s,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		email:      email,
		password:   password,
		menu:       newList("ECN Dashboard", menuEntries(), 80, 24),
		memberList: newList(views.MemberSchema.Messages.Loading, nil, 80, 24),
		bookList:   newList(views.BookSchema.Messages.Loading, nil, 80, 24),
	}
	return m
}

func newList(title string, items []list.Item, w, h int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), w, h-6)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func menuEntries() []list.Item {
	return []list.Item{
		menuItem{title: "Members", desc: "Browse, add, edit and delete members", target: MembersScreen},
		menuItem{title: "Books", desc: "Browse, add and delete books", target: BooksScreen},
		menuItem{title: "Logout", desc: "End this session", target: LoginScreen},
	}
}

// Screen reports the view currently shown.
func (m *Model) Screen() Screen { return m.screen }

// Init restores the persisted session while the spinner runs.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.restore())
}

func (m *Model) restore() tea.Cmd {
	return func() tea.Msg {
		m.opts.Store.Restore(m.ctx)
		return restoredMsg()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for _, l := range []*list.Model{&m.menu, &m.memberList, &m.bookList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.screen != LoadingScreen && !m.loginBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case LoginScreen:
			return m.handleLoginKeys(msg)
		case MenuScreen:
			return m.handleMenuKeys(msg)
		case MembersScreen, BooksScreen:
			return m.handleListKeys(msg)
		case ConfirmScreen:
			return m.handleConfirmKeys(msg)
		case FormScreen:
			return m.handleFormKeys(msg)
		}
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRestored:
		return m, m.navigate(MenuScreen)

	case MsgLoggedIn:
		res := msg.data.(loginResult)
		m.loginBusy = false
		if res.err != nil {
			m.loginErr = loginFailure(res.err)
			m.password.SetValue("")
			return m, nil
		}
		if err := m.opts.Store.Login(m.ctx, *res.session.User, res.session.Token); err != nil {
			m.loginErr = err.Error()
			return m, nil
		}
		m.record("session", models.ActionLogin, "", nil, "")
		m.loginErr = ""
		m.password.SetValue("")
		m.bindClients()
		return m, m.navigate(MenuScreen)

	case MsgListLoaded:
		res := msg.data.(listResult)
		m.refreshList(res.target)
		return m, nil

	case MsgRecordLoaded:
		if err, _ := msg.data.(error); err != nil {
			m.notice = m.memberForm.Notice()
			m.screen = MembersScreen
			return m, nil
		}
		m.editor = newMemberEditor(m.memberForm.Form(), true)
		return m, nil

	case MsgDeleted:
		res := msg.data.(deleteResult)
		m.notice = res.notice
		m.record(entityOf(res.target), models.ActionDelete, res.id, res.err, messageOf(res.notice))
		m.refreshList(res.target)
		m.screen = res.target
		return m, nil

	case MsgProgress:
		m.percent = msg.data.(int)
		return m, m.waitForProgress()

	case MsgSubmitted:
		res := msg.data.(submitResult)
		m.submission = nil
		return m, m.finishSubmit(res)
	}
	return m, nil
}

// navigate applies the route guard before showing a dashboard screen.
func (m *Model) navigate(target Screen) tea.Cmd {
	switch m.opts.Store.Decide() {
	case auth.Loading:
		m.screen = LoadingScreen
		return m.spinner.Tick
	case auth.Redirect:
		m.screen = LoginScreen
		return nil
	}

	if m.members == nil || m.books == nil {
		m.bindClients()
	}
	m.screen = target
	switch target {
	case MembersScreen:
		return m.loadList(MembersScreen)
	case BooksScreen:
		return m.loadList(BooksScreen)
	}
	return nil
}

// bindClients builds the list views with the current session token.
func (m *Model) bindClients() {
	token := m.opts.Store.Current().Token
	m.members = views.NewListView(views.MemberSchema, services.NewMemberResource(m.opts.API).WithToken(token), m.logger)
	m.books = views.NewListView(views.BookSchema, services.NewBookResource(m.opts.API).WithToken(token), m.logger)
}

func (m *Model) logout() tea.Cmd {
	m.record("session", models.ActionLogout, "", nil, "")
	m.opts.Store.Logout(m.ctx)
	m.members, m.books = nil, nil
	m.memberForm, m.bookForm = nil, nil
	m.notice = nil
	m.memberList.SetItems(nil)
	m.bookList.SetItems(nil)
	return m.navigate(MenuScreen)
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loginBusy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.next), key.Matches(msg, m.keys.prev):
		m.toggleLoginFocus()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.loginFocus == 0 {
			m.toggleLoginFocus()
			return m, nil
		}
		m.loginBusy = true
		m.loginErr = ""
		return m, tea.Batch(m.spinner.Tick, m.login(m.email.Value(), m.password.Value()))
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleLoginFocus() {
	if m.loginFocus == 0 {
		m.loginFocus = 1
		m.email.Blur()
		m.password.Focus()
		return
	}
	m.loginFocus = 0
	m.password.Blur()
	m.email.Focus()
}

func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		session, err := m.opts.Auth.Login(m.ctx, email, password)
		return loggedInMsg(session, err)
	}
}

func loginFailure(err error) string {
	if errors.Is(err, shared.ErrAuthFailed) {
		if msg := services.ServerMessage(err); msg != "" {
			return msg
		}
		return "Invalid email or password."
	}
	return fmt.Sprintf("Login failed: %v", err)
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.menu.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.theme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		m.notice = nil
		if item.target == LoginScreen {
			return m, m.logout()
		}
		return m, m.navigate(item.target)
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m *Model) cycleTheme() {
	m.prefs.Theme = NextTheme(m.prefs.Theme)
	m.styles = ThemePalette(m.prefs.Theme)
	if err := SavePrefs(m.opts.PrefsPath, m.prefs); err != nil {
		m.logger.Warn("failed to save preferences", "error", err)
	}
}

func (m *Model) currentList() *list.Model {
	if m.screen == BooksScreen {
		return &m.bookList
	}
	return &m.memberList
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.currentList()
	if l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		*l, cmd = l.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.notice = nil
		return m, m.navigate(MenuScreen)
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.refresh):
		m.notice = nil
		return m, m.loadList(m.screen)
	case key.Matches(msg, m.keys.add):
		return m, m.openAddForm(m.screen)
	case key.Matches(msg, m.keys.edit):
		if id, _ := selectedID(*l); id != "" && m.screen == MembersScreen {
			return m, m.openEditForm(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if id, label := selectedID(*l); id != "" {
			m.pending = pendingDelete{target: m.screen, id: id, label: label}
			m.screen = ConfirmScreen
		}
		return m, nil
	}

	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteSelected(m.pending)
	case key.Matches(msg, m.keys.no), msg.String() == "q":
		m.screen = m.pending.target
		m.pending = pendingDelete{}
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submission != nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.back):
		m.screen = m.formTarget
		return m, m.loadList(m.formTarget)
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.next), msg.String() == "enter":
		m.editor.move(1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.editor.move(-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.update(msg)
	return m, cmd
}

func (m *Model) loadList(target Screen) tea.Cmd {
	switch target {
	case MembersScreen:
		m.memberList.Title = m.members.Title()
		v := m.members
		return func() tea.Msg { return listLoadedMsg(target, v.Load(m.ctx)) }
	case BooksScreen:
		m.bookList.Title = m.books.Title()
		v := m.books
		return func() tea.Msg { return listLoadedMsg(target, v.Load(m.ctx)) }
	}
	return nil
}

// refreshList copies the list view's items into the bubbles list.
func (m *Model) refreshList(target Screen) {
	switch target {
	case MembersScreen:
		if m.members != nil {
			m.memberList.SetItems(memberItems(m.members.Items()))
		}
	case BooksScreen:
		if m.books != nil {
			m.bookList.SetItems(bookItems(m.books.Items()))
		}
	}
}

func (m *Model) deleteSelected(p pendingDelete) tea.Cmd {
	return func() tea.Msg {
		var (
			n   *views.Notice
			err error
		)
		switch p.target {
		case MembersScreen:
			n, err = m.members.Delete(m.ctx, p.id, views.Confirmed)
		case BooksScreen:
			n, err = m.books.Delete(m.ctx, p.id, views.Confirmed)
		}
		return deletedMsg(p.target, p.id, n, err)
	}
}

func (m *Model) token() string {
	return m.opts.Store.Current().Token
}

func (m *Model) openAddForm(target Screen) tea.Cmd {
	m.notice = nil
	m.formTarget = target
	m.percent = 0
	m.screen = FormScreen
	switch target {
	case MembersScreen:
		m.memberForm = views.NewAddForm(views.MemberSchema, services.NewMemberResource(m.opts.API).WithToken(m.token()), m.logger)
		m.bookForm = nil
		m.editor = newMemberEditor(m.memberForm.Form(), true)
	case BooksScreen:
		m.bookForm = views.NewAddForm(views.BookSchema, services.NewBookResource(m.opts.API).WithToken(m.token()), m.logger)
		m.memberForm = nil
		m.editor = newBookEditor(m.bookForm.Form())
	}
	return nil
}

func (m *Model) openEditForm(id string) tea.Cmd {
	form, err := views.NewEditForm(views.MemberSchema, services.NewMemberResource(m.opts.API).WithToken(m.token()), id, m.logger)
	if err != nil {
		m.notice = &views.Notice{Kind: views.NoticeError, Title: "Error", Text: err.Error()}
		return nil
	}
	m.notice = nil
	m.memberForm, m.bookForm = form, nil
	m.formTarget = MembersScreen
	m.percent = 0
	m.editor = editor{}
	m.screen = FormScreen
	return func() tea.Msg { return recordLoadedMsg(form.Load(m.ctx)) }
}

// submit hands the editor's values to the form view and starts the upload.
func (m *Model) submit() tea.Cmd {
	var problems map[string]string
	switch {
	case m.memberForm != nil:
		if m.memberForm.State() == views.Loading {
			return nil
		}
		var f models.MemberForm
		f, problems = m.editor.memberForm()
		m.memberForm.Set(f)
	case m.bookForm != nil:
		var f models.BookForm
		f, problems = m.editor.bookForm()
		m.bookForm.Set(f)
	default:
		return nil
	}
	if len(problems) > 0 {
		m.editor.mark(problems)
		return nil
	}

	m.notice = nil
	m.percent = 0
	if m.memberForm != nil {
		m.submission = m.memberForm.Start(m.ctx)
	} else {
		m.submission = m.bookForm.Start(m.ctx)
	}
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	sub := m.submission
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		if percent, ok := <-sub.Progress(); ok {
			return progressMsg(percent)
		}
		out, err := sub.Wait()
		return submittedMsg(out, err)
	}
}

func (m *Model) finishSubmit(res submitResult) tea.Cmd {
	var (
		notice   *views.Notice
		problems map[string]string
		mode     views.Mode
		id       string
		entity   string
	)
	switch {
	case m.memberForm != nil:
		notice, problems = m.memberForm.Notice(), m.memberForm.FieldErrors()
		mode, id, entity = m.memberForm.Mode(), m.memberForm.ID(), "member"
	case m.bookForm != nil:
		notice, problems = m.bookForm.Notice(), m.bookForm.FieldErrors()
		mode, id, entity = m.bookForm.Mode(), m.bookForm.ID(), "book"
	default:
		return nil
	}

	m.editor.mark(problems)
	if errors.Is(res.err, shared.ErrValidation) {
		return nil
	}

	action := models.ActionCreate
	if mode == views.EditMode {
		action = models.ActionUpdate
	}
	m.record(entity, action, id, res.err, messageOf(notice))
	m.notice = notice

	if res.err != nil {
		return nil
	}
	if mode == views.EditMode {
		m.memberForm = nil
		m.screen = MembersScreen
		return m.loadList(MembersScreen)
	}
	if m.memberForm != nil {
		m.editor = newMemberEditor(m.memberForm.Form(), true)
	} else {
		m.editor = newBookEditor(m.bookForm.Form())
	}
	return nil
}

// record writes an audit entry when an activity recorder is configured.
func (m *Model) record(entity string, action models.ActivityAction, id string, err error, msg string) {
	if m.opts.Activities == nil {
		return
	}
	actor := "tui"
	if user := m.opts.Store.Current().User; user != nil && user.Email != "" {
		actor = user.Email
	}
	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
	}
	if err := m.opts.Activities.Record(models.NewActivity(actor, entity, action, id, outcome, msg)); err != nil {
		m.logger.Warn("failed to record activity", "entity", entity, "action", action, "error", err)
	}
}

func entityOf(target Screen) string {
	if target == BooksScreen {
		return "book"
	}
	return "member"
}

func messageOf(n *views.Notice) string {
	if n == nil {
		return ""
	}
	return n.Text
}

// View renders the current screen.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case LoadingScreen:
		body = fmt.Sprintf("%s Restoring session...", m.spinner.View())
	case LoginScreen:
		body = m.renderLogin()
	case MenuScreen:
		body = m.renderMenu()
	case MembersScreen, BooksScreen:
		body = m.renderList()
	case ConfirmScreen:
		body = m.renderConfirm()
	case FormScreen:
		body = m.renderForm()
	}
	return body
}

func (m *Model) renderNotice() string {
	if m.notice == nil {
		return ""
	}
	if m.notice.IsError() {
		return m.styles.err.Render(m.notice.String()) + "\n\n"
	}
	return m.styles.ok.Render(m.notice.String()) + "\n\n"
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Login to ECN"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Email\n%s\n\nPassword\n%s\n\n", m.email.View(), m.password.View())
	if m.loginBusy {
		fmt.Fprintf(&b, "%s Logging in...\n\n", m.spinner.View())
	}
	if m.loginErr != "" {
		b.WriteString(m.styles.err.Render(m.loginErr) + "\n\n")
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.quit}))
	return b.String()
}

func (m *Model) renderMenu() string {
	name := m.opts.Store.Current().DisplayName()
	header := m.styles.help.Render(fmt.Sprintf("Signed in as %s • theme %s", name, m.prefs.Theme))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.theme, m.keys.logout, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s\n\n%s", m.renderNotice(), header, m.menu.View(), helpView)
}

func (m *Model) renderList() string {
	var (
		l     list.Model
		state views.State
		text  string
		keys  = []key.Binding{m.keys.add, m.keys.delete, m.keys.refresh, m.keys.back}
	)
	if m.screen == BooksScreen {
		l = m.bookList
		if m.books != nil {
			state, text = m.books.State(), m.books.Message()
		}
	} else {
		l = m.memberList
		if m.members != nil {
			state, text = m.members.State(), m.members.Message()
		}
		keys = append([]key.Binding{m.keys.edit}, keys...)
	}

	body := l.View()
	switch state {
	case views.Loading, views.Idle:
		body = fmt.Sprintf("%s %s", m.spinner.View(), text)
	case views.Empty:
		body = m.styles.warn.Render(text)
	case views.Failed:
		body = m.styles.err.Render(text)
	}
	return fmt.Sprintf("%s%s\n\n%s", m.renderNotice(), body, m.help.ShortHelpView(keys))
}

func (m *Model) renderConfirm() string {
	p := views.DeletePrompt
	title := m.styles.title.Render(p.Title)
	info := fmt.Sprintf("%s\n\n%s\n", m.pending.label, p.Text)
	yes := key.NewBinding(key.WithKeys("y"), key.WithHelp("y", strings.ToLower(p.ConfirmLabel)))
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView([]key.Binding{yes, m.keys.no}))
}

func (m *Model) renderForm() string {
	var (
		heading string
		state   views.State
	)
	switch {
	case m.memberForm != nil:
		heading, state = m.memberForm.Heading(), m.memberForm.State()
	case m.bookForm != nil:
		heading, state = m.bookForm.Heading(), m.bookForm.State()
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(heading))
	b.WriteString("\n")
	b.WriteString(m.renderNotice())

	if state == views.Loading {
		fmt.Fprintf(&b, "%s Loading...\n", m.spinner.View())
		return b.String()
	}

	b.WriteString(m.editor.view(m.styles))
	if m.submission != nil {
		fmt.Fprintf(&b, "\nUploading...\n%s\n", m.progress.ViewAs(float64(m.percent)/100))
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.prev, m.keys.submit, m.keys.back}))
	return b.String()
}
