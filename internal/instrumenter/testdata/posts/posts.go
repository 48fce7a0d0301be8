package posts

// MatchPosts pairs every user with the posts they wrote.
func MatchPosts(users []User, posts []Post) map[string][]string {
	titles := make(map[string][]string)
	for i := range users {
		for j := range posts {
			if posts[j].UserID == users[i].ID {
				titles[users[i].Name] = append(titles[users[i].Name], posts[j].Title)
			}
		}
	}
	return titles
}

func Join(items []string) string {
	var result string
	for _, item := range items {
		result += item
	}
	return result
}

func Contains(slice []string, target string) bool {
	for _, item := range slice {
		if item == target {
			return true
		}
	}
	return false
}

func Classify(x, y, z int) string {
	if x > 0 {
		if y > 0 {
			if z > 0 && x > y {
				return "ordered"
			}
			return "positive"
		} else {
			return "mixed"
		}
	}
	switch {
	case x == 0:
		return "zero"
	case x < -10:
		fallthrough
	case x < -5:
		return "low"
	}
	return "negative"
}

func Countdown(n int) (steps int) {
	defer func() {
		steps++
	}()
loop:
	for {
		select {
		default:
			if n == 0 {
				break loop
			}
			n--
			steps++
		}
	}
	return
}
