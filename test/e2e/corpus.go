// Package e2e provides end-to-end tests from a corpus directory on disk to answered questions.
package e2e

import (
	"os"
	"path/filepath"
	"strings"
)

// E2EDocument is one corpus file: a drug monograph reduced to a single paragraph.
type E2EDocument struct {
	File    string
	Content string
}

// QueryTestCase is a question and the file whose chunk must be retrieved first.
type QueryTestCase struct {
	Question     string
	ExpectedFile string
}

// Corpus holds documents and question test cases for E2E tests.
type Corpus struct {
	Documents []E2EDocument
	TestCases []QueryTestCase
}

var monographs = []E2EDocument{
	{"aspirin", "Aspirin reduces fever and relieves mild pain. Low dose aspirin also prevents blood clots after a heart attack."},
	{"ibuprofen", "Ibuprofen is an anti-inflammatory drug that reduces swelling and joint inflammation in arthritis."},
	{"metformin", "Metformin lowers blood glucose in adults with type 2 diabetes and is taken with meals."},
	{"amoxicillin", "Amoxicillin is a penicillin antibiotic used to treat bacterial infections such as otitis and pneumonia."},
	{"melatonin", "Melatonin helps regulate sleep and can shorten jet lag after long flights."},
	{"warfarin", "Warfarin is an anticoagulant; patients need regular INR monitoring and should avoid sudden changes in vitamin K intake."},
	{"omeprazole", "Omeprazole is a proton pump inhibitor that treats heartburn, gastric reflux and stomach ulcers."},
	{"salbutamol", "Salbutamol inhalers open the airways and relieve wheezing during an asthma attack."},
	{"levothyroxine", "Levothyroxine replaces thyroid hormone in hypothyroidism and should be taken on an empty stomach each morning."},
	{"loratadine", "Loratadine is a non-drowsy antihistamine for hay fever, sneezing and itchy eyes caused by pollen allergy."},
	{"insulin", "Insulin injections are stored in the refrigerator and the dose is adjusted to carbohydrate intake."},
	{"sertraline", "Sertraline is an antidepressant used for depression and anxiety; improvement can take several weeks."},
}

var questions = []QueryTestCase{
	{"What relieves wheezing in asthma?", "salbutamol"},
	{"Which antibiotic treats pneumonia?", "amoxicillin"},
	{"What needs INR monitoring?", "warfarin"},
	{"What treats heartburn and reflux?", "omeprazole"},
	{"Which drug helps with jet lag?", "melatonin"},
	{"What lowers blood glucose?", "metformin"},
	{"What is used for hypothyroidism?", "levothyroxine"},
	{"What helps with sneezing from pollen allergy?", "loratadine"},
	{"How should insulin be stored?", "insulin"},
	{"What is used for depression and anxiety?", "sertraline"},
	{"What reduces joint swelling in arthritis?", "ibuprofen"},
	{"What prevents blood clots after a heart attack?", "aspirin"},
}

// BuildCorpus returns the monograph corpus with every file written as ext (".pdf", ".docx", ...).
func BuildCorpus(ext string) *Corpus {
	return buildCorpus(func(int) string { return ext })
}

// BuildMixedCorpus returns the monograph corpus rotating through SupportedFileExtensions,
// so one directory exercises every extractor.
func BuildMixedCorpus() *Corpus {
	return buildCorpus(func(i int) string { return SupportedFileExtensions[i%len(SupportedFileExtensions)] })
}

func buildCorpus(extFor func(i int) string) *Corpus {
	c := &Corpus{Documents: make([]E2EDocument, len(monographs))}
	files := make(map[string]string, len(monographs))
	for i, m := range monographs {
		name := m.File + extFor(i)
		c.Documents[i] = E2EDocument{File: name, Content: m.Content}
		files[m.File] = name
	}
	for _, q := range questions {
		c.TestCases = append(c.TestCases, QueryTestCase{Question: q.Question, ExpectedFile: files[q.ExpectedFile]})
	}
	return c
}

// WriteTo writes every document into dir using the fixture for its extension.
func (c *Corpus) WriteTo(dir string) error {
	for _, d := range c.Documents {
		content, err := WriteMinimalFile(filepath.Ext(d.File), d.Content)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, d.File), content, 0644); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the document whose file name is name.
func (c *Corpus) Find(name string) (E2EDocument, bool) {
	for _, d := range c.Documents {
		if strings.EqualFold(d.File, name) {
			return d, true
		}
	}
	return E2EDocument{}, false
}
