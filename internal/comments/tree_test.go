package comments

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-social-client/internal/models"
)

func c(id, parent string) models.Comment {
	return models.Comment{ID: id, PostID: "p1", ParentID: parent, Body: "body " + id}
}

func ids(list []models.Comment) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		out = append(out, x.ID)
	}
	return out
}

func TestBuildTree_Fixture(t *testing.T) {
	t.Parallel()

	// 1 -> {2 -> {3}}, 4 корень, 5 ссылается на отсутствующий 99.
	in := []models.Comment{c("1", ""), c("2", "1"), c("3", "2"), c("4", ""), c("5", "99")}

	roots := BuildTree(in)
	require.Len(t, roots, 2)
	require.Equal(t, "1", roots[0].Comment.ID)
	require.Equal(t, "4", roots[1].Comment.ID)

	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "2", roots[0].Children[0].Comment.ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	require.Equal(t, "3", roots[0].Children[0].Children[0].Comment.ID)
	require.Empty(t, roots[1].Children)

	require.Equal(t, 4, Count(roots))
	require.Equal(t, 3, Depth(roots))
	require.Equal(t, []string{"5"}, ids(Dangling(in)))
}

func TestBuildTree_SiblingOrderFollowsInput(t *testing.T) {
	t.Parallel()

	roots := BuildTree([]models.Comment{c("A", ""), c("B", "A"), c("C", "A")})
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	require.Equal(t, "B", roots[0].Children[0].Comment.ID)
	require.Equal(t, "C", roots[0].Children[1].Comment.ID)
}

func TestBuildTree_ReplyBeforeParent(t *testing.T) {
	t.Parallel()

	roots := BuildTree([]models.Comment{c("B", "A"), c("A", "")})
	require.Len(t, roots, 1)
	require.Equal(t, "A", roots[0].Comment.ID)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "B", roots[0].Children[0].Comment.ID)
}

func TestBuildTree_DanglingDropsDescendants(t *testing.T) {
	t.Parallel()

	roots := BuildTree([]models.Comment{c("1", ""), c("2", "missing"), c("3", "2")})
	require.Equal(t, []string{"1"}, ids(Flatten(roots)))
}

func TestBuildTree_CycleIsUnreachable(t *testing.T) {
	t.Parallel()

	roots := BuildTree([]models.Comment{c("1", ""), c("x", "y"), c("y", "x"), c("z", "z")})
	require.Equal(t, []string{"1"}, ids(Flatten(roots)))
	require.Empty(t, Dangling([]models.Comment{c("x", "y"), c("y", "x")}))
}

func TestBuildTree_DuplicateIDKeepsFirst(t *testing.T) {
	t.Parallel()

	first := c("1", "")
	dup := c("1", "")
	dup.Body = "dup"

	roots := BuildTree([]models.Comment{first, dup, c("2", "1")})
	require.Len(t, roots, 1)
	require.Equal(t, "body 1", roots[0].Comment.Body)
	require.Len(t, roots[0].Children, 1)
}

func TestBuildTree_Empty(t *testing.T) {
	t.Parallel()

	roots := BuildTree(nil)
	require.NotNil(t, roots)
	require.Empty(t, roots)
	require.Equal(t, 0, Depth(roots))
	require.Equal(t, 0, Count(roots))
}

func TestFlatten_PreOrder(t *testing.T) {
	t.Parallel()

	in := []models.Comment{c("1", ""), c("2", ""), c("1a", "1"), c("2a", "2"), c("1b", "1"), c("1a1", "1a")}
	got := ids(Flatten(BuildTree(in)))
	require.Equal(t, []string{"1", "1a", "1a1", "1b", "2", "2a"}, got)
}

func TestWalk_LevelsAndStop(t *testing.T) {
	t.Parallel()

	roots := BuildTree([]models.Comment{c("1", ""), c("2", "1"), c("3", "2"), c("4", "")})

	levels := map[string]int{}
	Walk(roots, func(n *models.CommentNode, level int) bool {
		levels[n.Comment.ID] = level
		return true
	})
	require.Equal(t, map[string]int{"1": 0, "2": 1, "3": 2, "4": 0}, levels)

	visited := 0
	Walk(roots, func(*models.CommentNode, int) bool {
		visited++
		return visited < 2
	})
	require.Equal(t, 2, visited)
}

func TestCanReply(t *testing.T) {
	t.Parallel()

	require.True(t, CanReply(0))
	require.True(t, CanReply(MaxReplyDepth-1))
	require.False(t, CanReply(MaxReplyDepth))
}

func TestDropped_CountsDescendantsAndCycles(t *testing.T) {
	t.Parallel()

	list := []models.Comment{
		c("1", ""), c("2", "missing"), c("3", "2"), c("4", "3"),
		c("x", "y"), c("y", "x"), c("1", ""),
	}
	roots := BuildTree(list)

	require.Equal(t, []string{"2", "3", "4", "x", "y"}, ids(Dropped(list, roots)))
	require.Equal(t, []string{"2"}, ids(Dangling(list)))
	require.Empty(t, Dropped([]models.Comment{c("1", ""), c("2", "1")}, BuildTree([]models.Comment{c("1", ""), c("2", "1")})))
}
