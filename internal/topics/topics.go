// Package topics categorizes comment periods by keyword matching over
// title, abstract and agency. It is consumed read-only by rendering and the
// post formatter; the ingestion pipeline does not interpret topics.
package topics

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var topicsYAML []byte

// Topic is one topic definition.
type Topic struct {
	Name     string   `yaml:"name"`
	Emoji    string   `yaml:"emoji"`
	Keywords []string `yaml:"keywords"`
	Agencies []string `yaml:"agencies"`
}

var registry = mustLoad()

func mustLoad() map[string]Topic {
	var topics map[string]Topic
	if err := yaml.Unmarshal(topicsYAML, &topics); err != nil {
		panic(fmt.Sprintf("topics: invalid embedded topics.yaml: %v", err))
	}
	return topics
}

// All returns every topic definition keyed by topic ID.
func All() map[string]Topic {
	return registry
}

// Categorize returns the sorted topic IDs matching a period's title,
// abstract and agency ID.
func Categorize(title, abstract, agencyID string) []string {
	searchText := strings.ToLower(title + " " + abstract)

	var matches []string
	for id, topic := range registry {
		if matchesTopic(topic, searchText, agencyID) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)
	return matches
}

func matchesTopic(topic Topic, searchText, agencyID string) bool {
	for _, agency := range topic.Agencies {
		if agency == agencyID {
			return true
		}
	}
	for _, keyword := range topic.Keywords {
		if strings.Contains(searchText, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Hashtags converts topic IDs into sorted display hashtags, splitting
// compound names ("Environment & Climate" -> #Environment #Climate).
func Hashtags(topicIDs []string) []string {
	set := make(map[string]bool)
	for _, id := range topicIDs {
		topic, ok := registry[id]
		if !ok {
			continue
		}
		for _, part := range strings.Split(strings.ReplaceAll(topic.Name, "&", ","), ",") {
			tag := strings.ReplaceAll(strings.TrimSpace(part), " ", "")
			if tag != "" {
				set["#"+tag] = true
			}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
