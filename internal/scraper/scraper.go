// Package scraper extracts structured candidate records from hh.ru resume
// pages. Parsing is lenient: a selector miss leaves the field unset instead
// of failing the whole scrape.
package scraper

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/screening"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Client fetches and parses resume pages. Cookies carry the hh.ru session
// needed to see full resumes.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	cookies map[string]string
	logger  *zap.Logger
}

func New(cookies map[string]string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  defaultUserAgent,
		cookies:    cookies,
		logger:     logger,
	}
}

// Fetch downloads a resume page and parses it.
func (c *Client) Fetch(url, vacancyID string) (*screening.ResumeData, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	c.logger.Debug("fetch resume page", zap.String("url", url))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse resume html: %w", err)
	}

	data := Parse(doc)
	data.Link = url
	data.VacancyID = vacancyID
	return data, nil
}

// Parse extracts a resume record from an already loaded document.
func Parse(doc *goquery.Document) *screening.ResumeData {
	data := &screening.ResumeData{}

	data.Name = extractText(doc, "h2[data-qa='resume-personal-name']")
	data.Address = extractText(doc, "span[data-qa='resume-personal-address']")
	data.Position = extractText(doc, "span[data-qa='resume-block-title-position']")
	if status := extractText(doc, "span[data-qa='job-search-status']"); status != nil {
		clean := strings.ReplaceAll(*status, "\u00a0", " ")
		data.JobSearchStatus = &clean
	}

	data.Age = extractAge(doc)
	data.BirthDate = extractBirthDate(doc)
	data.Salary = extractSalary(doc)
	data.Citizenship = extractCitizenship(doc)
	data.ReadyToRelocate = extractRelocation(doc)
	data.Skills = extractSkills(doc)
	data.Experiences = extractExperiences(doc)
	data.Employment = extractEmployment(doc)

	return data
}

func extractText(doc *goquery.Document, selector string) *string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}

var digitsRe = regexp.MustCompile(`\d+`)

func extractAge(doc *goquery.Document) *int {
	text := doc.Find("span[data-qa='resume-personal-age']").First().Text()
	match := digitsRe.FindString(text)
	if match == "" {
		return nil
	}
	age, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &age
}

func extractSalary(doc *goquery.Document) *int {
	text := doc.Find("span[data-qa='resume-block-salary']").First().Text()
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return nil
	}
	salary, err := strconv.Atoi(digits.String())
	if err != nil {
		return nil
	}
	return &salary
}

var ruMonths = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
}

func extractBirthDate(doc *goquery.Document) *time.Time {
	text := strings.TrimSpace(doc.Find("span[data-qa='resume-personal-birthday']").First().Text())
	parts := strings.Fields(strings.ReplaceAll(text, "\u00a0", " "))
	if len(parts) < 3 {
		return nil
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	month, ok := ruMonths[strings.ToLower(parts[1])]
	if !ok {
		return nil
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &date
}

func extractCitizenship(doc *goquery.Document) *string {
	var result *string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.HasPrefix(text, "Гражданство") {
			value := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "Гражданство"), ":"))
			if value != "" {
				result = &value
			}
			return false
		}
		return true
	})
	return result
}

func extractRelocation(doc *goquery.Document) *bool {
	var result *bool
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if !strings.Contains(text, "переезду") {
			return true
		}
		// "не готов к переезду" contains the positive phrase, so the
		// negation has to win.
		ready := !strings.Contains(text, "не готов") &&
			(strings.Contains(text, "готов к переезду") || strings.Contains(text, "готова к переезду"))
		result = &ready
		return false
	})
	return result
}

func extractSkills(doc *goquery.Document) []string {
	var skills []string
	doc.Find("div[data-qa='skills-table'] span").Each(func(_ int, sel *goquery.Selection) {
		if skill := strings.TrimSpace(sel.Text()); skill != "" {
			skills = append(skills, skill)
		}
	})
	return skills
}

func extractExperiences(doc *goquery.Document) []screening.WorkExperience {
	var experiences []screening.WorkExperience
	seen := make(map[screening.WorkExperience]bool)

	doc.Find("div[data-qa='resume-block-experience'] div.resume-block-item-gap").Each(func(_ int, block *goquery.Selection) {
		exp := screening.WorkExperience{
			Company:     cleanInline(block.Find("div.bloko-text.bloko-text_strong").First().Text()),
			Position:    cleanInline(block.Find("div[data-qa='resume-block-experience-position']").First().Text()),
			Description: cleanInline(block.Find("div[data-qa='resume-block-experience-description']").First().Text()),
		}
		period := block.Find("div.bloko-column_s-2").First().Text()
		exp.Start, exp.End = parsePeriod(period)

		if exp == (screening.WorkExperience{}) || seen[exp] {
			return
		}
		seen[exp] = true
		experiences = append(experiences, exp)
	})

	return experiences
}

func extractEmployment(doc *goquery.Document) *screening.EmploymentInfo {
	var employmentType, workSchedule string
	doc.Find("div.resume-block-container p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		switch {
		case strings.Contains(text, "Занятость"):
			employmentType = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "Занятость"), ":"))
		case strings.Contains(text, "График работы"):
			workSchedule = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "График работы"), ":"))
		}
	})
	if employmentType == "" || workSchedule == "" {
		return nil
	}
	return &screening.EmploymentInfo{EmploymentType: employmentType, WorkSchedule: workSchedule}
}

func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

var monthNumbers = map[string]string{
	"январь": "01", "января": "01", "февраль": "02", "февраля": "02",
	"март": "03", "марта": "03", "апрель": "04", "апреля": "04",
	"май": "05", "мая": "05", "июнь": "06", "июня": "06",
	"июль": "07", "июля": "07", "август": "08", "августа": "08",
	"сентябрь": "09", "сентября": "09", "октябрь": "10", "октября": "10",
	"ноябрь": "11", "ноября": "11", "декабрь": "12", "декабря": "12",
}

// parsePeriod turns a period block like "Март 2020 — Май 2023" into a pair of
// YYYY-MM strings. An open range ("по настоящее время") leaves end empty.
func parsePeriod(raw string) (start, end string) {
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	line := raw
	if idx := strings.IndexByte(raw, '\n'); idx != -1 {
		line = raw[:idx]
	}
	line = strings.TrimSpace(line)

	if !strings.Contains(line, "—") {
		return "", ""
	}
	parts := strings.SplitN(line, "—", 2)
	start = parseMonthYear(parts[0])

	if strings.Contains(parts[1], "по настоящее время") {
		return start, ""
	}
	return start, parseMonthYear(parts[1])
}

func parseMonthYear(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) < 2 {
		return ""
	}
	month, ok := monthNumbers[strings.ToLower(fields[0])]
	if !ok {
		return ""
	}
	year := fields[1]
	if len(year) > 4 {
		year = year[:4]
	}
	return year + "-" + month
}
