package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Lirbo/trivia-game/internal/app"
	"github.com/Lirbo/trivia-game/internal/domain"
)

// State identifies one screen of the menu state machine. The controller
// replaces recursive menu calls with an explicit transition table, so
// navigating back and forth never grows the call stack.
type State int

const (
	StateStart State = iota
	StateLogin
	StateRegister
	StateAdmin
	StateStats
	StateUser
	StatePlay
	StateExhausted
	StateQuit
)

// Controller drives the terminal menus against the game service. Input
// and output are injected, so tests can script a whole session.
type Controller struct {
	svc      *app.GameService
	in       *bufio.Scanner
	out      io.Writer
	session  session
	handlers map[State]func(context.Context) (State, error)
}

// session is the per-run state: the logged-in user, nothing else. It is
// owned by one Run call and never shared.
type session struct {
	user     domain.User
	loggedIn bool
}

func NewController(svc *app.GameService, in io.Reader, out io.Writer) *Controller {
	c := &Controller{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
	c.handlers = map[State]func(context.Context) (State, error){
		StateStart:     c.handleStart,
		StateLogin:     c.handleLogin,
		StateRegister:  c.handleRegister,
		StateAdmin:     c.handleAdmin,
		StateStats:     c.handleStats,
		StateUser:      c.handleUser,
		StatePlay:      c.handlePlay,
		StateExhausted: c.handleExhausted,
	}
	return c
}

// Run executes the state machine until it reaches StateQuit, the input
// stream ends, or a non-recoverable store error surfaces.
func (c *Controller) Run(ctx context.Context) error {
	state := StateStart
	for state != StateQuit {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := c.handlers[state](ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		state = next
	}
	return nil
}

func (c *Controller) handleStart(context.Context) (State, error) {
	c.session = session{}
	for {
		choice, err := c.promptChoice("\nPlease select an option from the menu:\n1. Login\n2. Register\n3. Quit\nInsert your choice: ", 1, 3)
		if err != nil {
			return StateQuit, err
		}
		switch choice {
		case 1:
			return StateLogin, nil
		case 2:
			return StateRegister, nil
		case 3:
			return StateQuit, nil
		}
	}
}

func (c *Controller) handleLogin(ctx context.Context) (State, error) {
	username, err := c.promptLine("\nPlease enter your credentials!\nUsername: ")
	if err != nil {
		return StateQuit, err
	}
	password, err := c.promptLine("Password: ")
	if err != nil {
		return StateQuit, err
	}

	for {
		user, err := c.svc.Authenticate(ctx, username, password)
		switch {
		case err == nil:
			c.session = session{user: user, loggedIn: true}
			if user.IsAdmin {
				return StateAdmin, nil
			}
			return StateUser, nil
		case errors.Is(err, domain.ErrUserNotFound):
			fmt.Fprintln(c.out, "No such user, going back to the main menu.")
			return StateStart, nil
		case errors.Is(err, domain.ErrInvalidCredentials):
			password, err = c.promptLine("\nInvalid password, please try again!\nTo exit please type 'EXIT'.\nPassword: ")
			if err != nil {
				return StateQuit, err
			}
			if password == "EXIT" {
				return StateStart, nil
			}
		default:
			return StateQuit, err
		}
	}
}

func (c *Controller) handleRegister(ctx context.Context) (State, error) {
	username, err := c.promptLine("\nPlease enter your desired username!\nUsername: ")
	if err != nil {
		return StateQuit, err
	}

	password, err := c.promptLine("\nPlease enter your desired password!\nPassword Rules: 6-32 characters, must include alphabetic characters, numbers, and a special symbol!\nPassword: ")
	if err != nil {
		return StateQuit, err
	}
	for !validPassword(password) {
		password, err = c.promptLine("\nYour password does not meet the criteria!\nPassword Rules: 6-32 characters, must include alphabetic characters, numbers, and a special symbol!\nPassword: ")
		if err != nil {
			return StateQuit, err
		}
	}

	email, err := c.promptLine("\nPlease enter your e-mail address:\nE-mail: ")
	if err != nil {
		return StateQuit, err
	}
	for !emailPattern.MatchString(email) {
		email, err = c.promptLine("\nInvalid email address!\nE-mail: ")
		if err != nil {
			return StateQuit, err
		}
	}

	dobRaw, err := c.promptLine("\nPlease enter your date-of-birth (YYYY-MM-DD)!\nD.O.B: ")
	if err != nil {
		return StateQuit, err
	}
	dob, parseErr := parseDate(dobRaw)
	for parseErr != nil {
		dobRaw, err = c.promptLine("\nInvalid date-of-birth, please use YYYY-MM-DD format!\nD.O.B: ")
		if err != nil {
			return StateQuit, err
		}
		dob, parseErr = parseDate(dobRaw)
	}

	user, err := c.svc.Register(ctx, username, password, email, dob)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			fmt.Fprintln(c.out, "This username is already taken, please pick something else!")
			return StateRegister, nil
		}
		return StateQuit, err
	}
	c.session = session{user: user, loggedIn: true}
	return StateUser, nil
}

func (c *Controller) handleAdmin(ctx context.Context) (State, error) {
	for {
		choice, err := c.promptChoice("\nPlease select an option from the menu:\n1. Create a Question\n2. View Game Statistics\n3. Log out\nInsert your choice: ", 1, 3)
		if err != nil {
			return StateQuit, err
		}
		switch choice {
		case 1:
			if err := c.createQuestion(ctx); err != nil {
				return StateQuit, err
			}
		case 2:
			return StateStats, nil
		case 3:
			return StateStart, nil
		}
	}
}

func (c *Controller) createQuestion(ctx context.Context) error {
	text, err := c.promptLine("\nPlease enter the body of the question!\nQuestion: ")
	if err != nil {
		return err
	}
	var options [4]string
	labels := [4]string{"first", "second", "third", "fourth"}
	for i := range options {
		options[i], err = c.promptLine(fmt.Sprintf("\nPlease enter the %s answer!\nAnswer %d: ", labels[i], i+1))
		if err != nil {
			return err
		}
	}
	correct, err := c.promptChoice("\nPlease enter the number of the correct answer!\nCorrect Answer: ", 1, 4)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\nQuestion: %s\nAnswer 1: %s\nAnswer 2: %s\nAnswer 3: %s\nAnswer 4: %s\nCorrect Answer: %d\n",
		text, options[0], options[1], options[2], options[3], correct)
	confirm, err := c.promptLine("Are you sure you would like to create this question? Y/N: ")
	if err != nil {
		return err
	}
	if strings.ToLower(confirm) != "y" {
		fmt.Fprintln(c.out, "Question creation process has been stopped!")
		return nil
	}

	id, err := c.svc.CreateQuestion(ctx, text, options, correct)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Question #%d has been successfully created!\n", id)
	return nil
}

func (c *Controller) handleStats(ctx context.Context) (State, error) {
	for {
		choice, err := c.promptChoice("\nPlease select which of the following statistics would you like to display:\n"+
			"1. Count of users who have played\n"+
			"2. Easiest Question(s)\n"+
			"3. Hardest Question(s)\n"+
			"4. Users who have answered the most questions correctly\n"+
			"5. Users who have answered the most questions\n"+
			"6. View user answers\n"+
			"7. Question-specific statistics\n"+
			"8. Return\n"+
			"Insert your choice: ", 1, 8)
		if err != nil {
			return StateQuit, err
		}

		switch choice {
		case 1:
			count, err := c.svc.PlayedUserCount(ctx)
			if err != nil {
				return StateQuit, err
			}
			fmt.Fprintf(c.out, "Users who have played: %d\n", count)
		case 2:
			tallies, err := c.svc.EasiestQuestions(ctx)
			if err != nil {
				return StateQuit, err
			}
			c.printTallies(tallies)
		case 3:
			tallies, err := c.svc.HardestQuestions(ctx)
			if err != nil {
				return StateQuit, err
			}
			c.printTallies(tallies)
		case 4:
			rows, err := c.svc.TopByCorrect(ctx)
			if err != nil {
				return StateQuit, err
			}
			for _, row := range rows {
				fmt.Fprintf(c.out, "%s (%d questions solved correctly)\n", row.Username, row.Count)
			}
		case 5:
			rows, err := c.svc.TopByAnswered(ctx)
			if err != nil {
				return StateQuit, err
			}
			for _, row := range rows {
				fmt.Fprintf(c.out, "%s (%d questions solved)\n", row.Username, row.Count)
			}
		case 6:
			target, err := c.promptChoice("\nPlease enter the User ID of the targeted user:\nUser ID: ", 1, int(^uint(0)>>1))
			if err != nil {
				return StateQuit, err
			}
			history, err := c.svc.UserAnswers(ctx, int64(target))
			if err != nil {
				return StateQuit, err
			}
			for _, row := range history {
				fmt.Fprintf(c.out, "%s (%t)\n", row.Question, row.Correct)
			}
		case 7:
			breakdown, err := c.svc.QuestionBreakdown(ctx)
			if err != nil {
				return StateQuit, err
			}
			for _, row := range breakdown {
				fmt.Fprintf(c.out, "%s [Answers: %d] [Correct Answers: %d] [Incorrect Answers: %d]\n",
					row.Question, row.Total, row.Correct, row.Incorrect)
			}
		case 8:
			return StateAdmin, nil
		}
	}
}

func (c *Controller) printTallies(tallies []domain.QuestionTally) {
	for _, tally := range tallies {
		fmt.Fprintf(c.out, "%s (%d solved correctly)\n", tally.Question, tally.Correct)
	}
}

func (c *Controller) handleUser(ctx context.Context) (State, error) {
	for {
		choice, err := c.promptChoice("\nPlease select an option from the menu:\n1. Play\n2. My Statistics\n3. Hall of Fame\n4. Log out\nInsert your choice: ", 1, 4)
		if err != nil {
			return StateQuit, err
		}
		switch choice {
		case 1:
			user, err := c.svc.User(ctx, c.session.user.ID)
			if err != nil {
				return StateQuit, err
			}
			if user.QuestionsSolved != 0 {
				resume, err := c.promptChoice("\nWould you like to continue the game from where you left?\n1. Continue\n2. Start Over\nInsert your choice: ", 1, 2)
				if err != nil {
					return StateQuit, err
				}
				if resume == 2 {
					if err := c.svc.ResetProgress(ctx, user.ID); err != nil {
						return StateQuit, err
					}
				}
			}
			return StatePlay, nil
		case 2:
			summary, err := c.svc.UserSummary(ctx, c.session.user.ID)
			if err != nil {
				return StateQuit, err
			}
			lastPlayed := "never"
			if summary.User.PlayStartedAt != nil {
				lastPlayed = summary.User.PlayStartedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(c.out, "\nUnique ID: %d\nUsername: %s\nE-mail: %s\nD.O.B: %s\nQuestions Solved: %d (%d/%d are correct)\nLast Played: %s\n",
				summary.User.ID, summary.User.Username, summary.User.Email,
				summary.User.DateOfBirth.Format("2006-01-02"),
				summary.User.QuestionsSolved, summary.CorrectAnswers, summary.User.QuestionsSolved,
				lastPlayed)
		case 3:
			board, err := c.svc.HallOfFame(ctx)
			if err != nil {
				return StateQuit, err
			}
			if len(board) == 0 {
				fmt.Fprintln(c.out, "Looks like no player has played yet...")
				continue
			}
			for _, row := range board {
				fmt.Fprintf(c.out, "%s: %d correct answers (Time: %s)\n", row.Username, row.CorrectAnswers, row.PlayDuration)
			}
		case 4:
			return StateStart, nil
		}
	}
}

func (c *Controller) handlePlay(ctx context.Context) (State, error) {
	if err := c.svc.StartPlay(ctx, c.session.user.ID); err != nil {
		return StateQuit, err
	}

	for {
		question, err := c.svc.NextQuestion(ctx, c.session.user.ID)
		if err != nil {
			if errors.Is(err, domain.ErrQuestionsExhausted) {
				return StateExhausted, nil
			}
			return StateQuit, err
		}

		choice, err := c.promptChoice(fmt.Sprintf("\n%s\n1. %s\n2. %s\n3. %s\n4. %s\n5. Exit\nInsert your answer: ",
			question.Text, question.Options[0], question.Options[1], question.Options[2], question.Options[3]), 1, 5)
		if err != nil {
			return StateQuit, err
		}
		if choice == 5 {
			return StateUser, nil
		}

		correct, err := c.svc.SubmitAnswer(ctx, c.session.user.ID, question.ID, choice)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyAnswered) {
				// Another session advanced this user; fetch the new cursor.
				continue
			}
			return StateQuit, err
		}
		verdict := "wrong"
		if correct {
			verdict = "correct"
		}
		fmt.Fprintf(c.out, "You are %s! The right answer is #%d.\n", verdict, question.CorrectChoice)
	}
}

func (c *Controller) handleExhausted(ctx context.Context) (State, error) {
	total, err := c.svc.QuestionCount(ctx)
	if err != nil {
		return StateQuit, err
	}
	answer, err := c.promptLine(fmt.Sprintf("\nCongratulations, you've answered all of the %d questions!\nIf you're interested to start all over again type 'RESET', otherwise press ENTER... ", total))
	if err != nil {
		return StateQuit, err
	}
	if strings.ToLower(answer) == "reset" {
		if err := c.svc.ResetProgress(ctx, c.session.user.ID); err != nil {
			return StateQuit, err
		}
	}
	return StateUser, nil
}

// promptLine prints the prompt and reads one trimmed line. io.EOF means
// the input stream ended and the run should stop.
func (c *Controller) promptLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// promptChoice reads a number in [min, max], re-prompting on anything else.
func (c *Controller) promptChoice(prompt string, min, max int) (int, error) {
	for {
		line, err := c.promptLine(prompt)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < min || n > max {
			fmt.Fprintln(c.out, "Invalid input! Please try again...")
			continue
		}
		return n, nil
	}
}
