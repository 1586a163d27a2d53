package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/quizentia/quizentia-web/internal/model"
)

var (
	errUsage = errors.New("invalid usage, see quizctl --help")

	heading = color.New(color.Bold, color.FgCyan)
	dim     = color.New(color.FgHiBlack)
	success = color.New(color.FgGreen)
)

func (a *cli) run(ctx context.Context, command string, args []string) error {
	if command == "logout" {
		if err := a.admin.Logout(ctx, a.store); err != nil {
			return err
		}
		success.Println("Logged out")
		return nil
	}

	if err := a.ensureLogin(ctx); err != nil {
		return err
	}

	switch command {
	case "weeks":
		return a.weeks(ctx)
	case "week-quizzes":
		if len(args) != 1 {
			return errUsage
		}
		return a.weekQuizzes(ctx, args[0])
	case "questions":
		return a.questions(ctx)
	case "delete-question":
		if len(args) != 2 {
			return errUsage
		}
		quizID, err := parseID(args[0], 1)
		if err != nil {
			return err
		}
		index, err := parseID(args[1], 0)
		if err != nil {
			return err
		}
		return a.deleteQuestion(ctx, quizID, index)
	case "delete-quiz":
		if len(args) != 1 {
			return errUsage
		}
		quizID, err := parseID(args[0], 1)
		if err != nil {
			return err
		}
		return a.deleteQuiz(ctx, quizID)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *cli) weeks(ctx context.Context) error {
	weeks, err := a.admin.Weeks(ctx, a.store)
	if err != nil {
		return err
	}
	if len(weeks) == 0 {
		dim.Println("No weeks yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	heading.Fprintln(w, "WEEK\tLABEL\tQUIZZES")
	for _, week := range weeks {
		fmt.Fprintf(w, "%s\t%s\t%d\n", week.WeekID, week.WeekLabel, len(week.QuizIDs))
	}
	return w.Flush()
}

func (a *cli) weekQuizzes(ctx context.Context, weekID string) error {
	resp, err := a.admin.WeekQuizzes(ctx, a.store, weekID)
	if err != nil {
		return err
	}

	heading.Printf("%s: %d quizzes\n", resp.WeekID, resp.TotalQuizzes)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUESTIONS\tTITLE")
	for _, q := range resp.Quizzes {
		fmt.Fprintf(w, "%d\t%d\t%s\n", q.ID, q.QuestionsCount, q.Title)
	}
	return w.Flush()
}

func (a *cli) questions(ctx context.Context) error {
	var (
		listing *model.QuestionListing
		err     error
	)
	switch {
	case a.opts.quizID > 0:
		listing, err = a.admin.QuizQuestions(ctx, a.store, a.opts.quizID, a.opts.search)
	case a.opts.weekID != "":
		listing, err = a.admin.WeekQuestions(ctx, a.store, a.opts.weekID, a.opts.search)
	default:
		return fmt.Errorf("%w: questions needs --week or --quiz", errUsage)
	}
	if err != nil {
		return err
	}

	heading.Printf("Showing %d of %d questions\n", len(listing.Questions), listing.TotalQuestions)
	for _, q := range listing.Questions {
		fmt.Println()
		dim.Printf("[quiz %d #%d] %s\n", q.QuizID, q.QuestionIndex, q.QuizTitle)
		fmt.Println(q.Question.Question)
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				success.Printf("  * %s\n", opt)
				continue
			}
			fmt.Printf("    %s\n", opt)
		}
		if q.Hint != "" {
			dim.Printf("  hint: %s\n", q.Hint)
		}
	}
	return nil
}

func (a *cli) deleteQuestion(ctx context.Context, quizID, index int) error {
	if !a.confirm(fmt.Sprintf("Delete question %d of quiz %d?", index, quizID)) {
		dim.Println("Cancelled")
		return nil
	}
	if err := a.admin.DeleteQuestion(ctx, a.store, quizID, index); err != nil {
		return err
	}
	success.Printf("Deleted question %d of quiz %d\n", index, quizID)
	return nil
}

func (a *cli) deleteQuiz(ctx context.Context, quizID int) error {
	if !a.confirm(fmt.Sprintf("Delete quiz %d and all its questions?", quizID)) {
		dim.Println("Cancelled")
		return nil
	}
	if err := a.admin.DeleteQuiz(ctx, a.store, quizID); err != nil {
		return err
	}
	success.Printf("Deleted quiz %d\n", quizID)
	return nil
}

func parseID(raw string, minValue int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < minValue {
		return 0, fmt.Errorf("%w: %q is not a valid id", errUsage, raw)
	}
	return n, nil
}
