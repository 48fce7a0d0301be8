package posts

type User struct {
	ID   int
	Name string
}

type Post struct {
	ID     int
	UserID int
	Title  string
}

func (u *User) Rename(name string) {
	if name != "" {
		u.Name = name
	}
}

var titleOf = func(p Post) string { return p.Title }
