package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/screening"
	"github.com/ovoronin/hireloop/internal/store"
)

const (
	promptYes         = "Yes"
	promptNo          = "No"
	promptDone        = "Done"
	promptAddQuestion = "Add a question"
	promptList        = "List questions"
	promptNewVacancy  = "New vacancy"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage vacancy questionnaires interactively",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()

		logger, err := newLogger()
		if err != nil {
			cobra.CheckErr(err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		st, err := openStore(ctx, config)
		if err != nil {
			logger.Fatal("opening the store", zap.Error(err))
		}
		defer st.Close()

		if err := editQuestions(ctx, st); err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				return
			}
			logger.Fatal("editing questions", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}

func editQuestions(ctx context.Context, st *store.Store) error {
	vacancy, err := selectVacancy(ctx, st)
	if err != nil {
		return err
	}

	for {
		menu := promptui.Select{
			Label: fmt.Sprintf("Questionnaire for '%s'", vacancy.Title),
			Items: []string{promptAddQuestion, promptList, promptDone},
		}
		_, action, err := menu.Run()
		if err != nil {
			return err
		}

		switch action {
		case promptDone:
			return nil
		case promptList:
			questions, err := st.QuestionsByVacancy(ctx, vacancy.ID)
			if err != nil {
				return err
			}
			for _, q := range questions {
				fmt.Printf("%d. [%s] %s\n", q.Order, q.Format, q.Text)
			}
			if len(questions) == 0 {
				fmt.Println("no questions yet")
			}
		case promptAddQuestion:
			if err := addQuestion(ctx, st, vacancy.ID); err != nil {
				return err
			}
		}
	}
}

func selectVacancy(ctx context.Context, st *store.Store) (*screening.Vacancy, error) {
	vacancies, err := st.ListVacancies(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(vacancies)+1)
	for _, v := range vacancies {
		items = append(items, fmt.Sprintf("%s %s", v.ID, v.Title))
	}
	items = append(items, promptNewVacancy)

	prompt := promptui.Select{
		Label: "Choose a vacancy and press ENTER",
		Items: items,
	}
	idx, selected, err := prompt.Run()
	if err != nil {
		return nil, err
	}

	if selected != promptNewVacancy {
		return &vacancies[idx], nil
	}

	title, err := askText("Vacancy title", true)
	if err != nil {
		return nil, err
	}
	description, err := askText("Vacancy description (optional)", false)
	if err != nil {
		return nil, err
	}

	vacancy := &screening.Vacancy{Title: title, Description: description}
	if err := st.CreateVacancy(ctx, vacancy); err != nil {
		return nil, err
	}
	fmt.Printf("vacancy: %s\n", vacancy.ID)
	return vacancy, nil
}

func addQuestion(ctx context.Context, st *store.Store, vacancyID string) error {
	existing, err := st.QuestionsByVacancy(ctx, vacancyID)
	if err != nil {
		return err
	}

	text, err := askText("Question text", true)
	if err != nil {
		return err
	}

	formatPrompt := promptui.Select{
		Label: "Answer format",
		Items: []string{string(screening.FormatText), string(screening.FormatFile), string(screening.FormatChoice)},
	}
	_, format, err := formatPrompt.Run()
	if err != nil {
		return err
	}

	question := &screening.Question{
		VacancyID: vacancyID,
		Order:     len(existing) + 1,
		Text:      text,
		Format:    screening.AnswerFormat(format),
	}

	if question.Format == screening.FormatChoice {
		raw, err := askText("Choices (comma-separated)", true)
		if err != nil {
			return err
		}
		for _, choice := range strings.Split(raw, ",") {
			if choice = strings.TrimSpace(choice); choice != "" {
				question.Choices = append(question.Choices, choice)
			}
		}
		if len(question.Choices) < 2 {
			return errors.New("a choice question needs at least two choices")
		}
	}

	screeningPrompt := promptui.Select{
		Label: "Use the answer for screening?",
		Items: []string{promptNo, promptYes},
	}
	_, forScreening, err := screeningPrompt.Run()
	if err != nil {
		return err
	}
	if forScreening == promptYes {
		question.ForScreening = true
		hint, err := askText("What does a strong answer look like?", false)
		if err != nil {
			return err
		}
		question.ScreeningPrompt = hint
	}

	if err := st.CreateQuestion(ctx, question); err != nil {
		return err
	}

	fmt.Printf("question %d saved\n", question.Order)
	return nil
}

func askText(label string, required bool) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if required && strings.TrimSpace(input) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
